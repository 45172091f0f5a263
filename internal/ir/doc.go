// Package ir provides the record shapes that model readers produce and the
// graph builder consumes.
//
// This package contains record definitions, canonical serialization and
// content hashing only. All other internal packages import ir; ir imports
// nothing internal.
//
// Key design constraints:
//   - Ids, ports and parameter values stay as text; numeric parsing belongs
//     to the graph builder so malformed literals are reported in one place
//   - Record order is significant and preserved end to end
//   - All JSON tags use snake_case
package ir
