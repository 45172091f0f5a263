package compiler

import (
	"bytes"
	"fmt"
	"strings"
)

// EmitHeader renders the companion declarations included by the source.
func EmitHeader(prefix string) []byte {
	var b bytes.Buffer
	guard := strings.ToUpper(prefix) + "_RUN_H"
	lines := []string{
		"#ifndef " + guard,
		"#define " + guard,
		"",
		"#include <stddef.h>",
		"",
		"typedef struct",
		"{",
		indent + "const char *name;",
		indent + "void *address;",
		indent + "int is_input;",
		fmt.Sprintf("} %s_ExtPort;", prefix),
		"",
		fmt.Sprintf("void %s_generated_init(void);", prefix),
		fmt.Sprintf("void %s_generated_step(void);", prefix),
		"",
		fmt.Sprintf("extern const %s_ExtPort * const %s_generated_ext_ports;", prefix, prefix),
		fmt.Sprintf("extern const size_t %s_generated_ext_ports_size;", prefix),
		"",
		"#endif",
	}
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.Bytes()
}
