// Package foundry mirrors the module root package under a nested import
// path, for callers who import "github.com/foundry-agents/foundry-go/foundry".
//
// Every name here is an alias of the root package, so values move freely
// between the two. New code can import the module root directly.
package foundry
