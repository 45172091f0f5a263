package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() ModelRecords {
	return ModelRecords{
		Blocks: []BlockRecord{
			{ID: "1", Name: "u", Kind: KindInport, Port: true},
			{ID: "2", Name: "k", Kind: KindGain, Params: map[string]string{ParamGain: "2", "Other": "x"}},
		},
		Lines: []LineRecord{{Src: Endpoint{Block: "1"}, Dst: &Endpoint{Block: "2", Port: "1"}}},
	}
}

func TestModelHash_Deterministic(t *testing.T) {
	h1, err := ModelHash(sampleRecords())
	require.NoError(t, err)
	h2, err := ModelHash(sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestModelHash_IgnoresSourceLines(t *testing.T) {
	a := sampleRecords()
	b := sampleRecords()
	b.Blocks[0].Line = 42

	ha, err := ModelHash(a)
	require.NoError(t, err)
	hb, err := ModelHash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestModelHash_ChangesWithContent(t *testing.T) {
	a := sampleRecords()
	b := sampleRecords()
	b.Blocks[1].Params[ParamGain] = "3"

	ha, err := ModelHash(a)
	require.NoError(t, err)
	hb, err := ModelHash(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)
}

func TestArtifactHash_DomainSeparated(t *testing.T) {
	data := []byte("void f() {}")
	assert.Equal(t, ArtifactHash(data), ArtifactHash(data))
	assert.NotEqual(t, hashWithDomain(DomainModel, data), ArtifactHash(data))
}
