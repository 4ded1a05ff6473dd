//go:build !stdjson

// Package jsonx selects the JSON codec for the HTTP surface. The default
// is json-iterator in standard-library-compatible mode; build with
// -tags=stdjson to fall back to encoding/json.
package jsonx

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	Marshal    = json.Marshal
	Unmarshal  = json.Unmarshal
	NewDecoder = json.NewDecoder
	NewEncoder = json.NewEncoder
)
