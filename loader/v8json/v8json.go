// ABOUTME: Streaming loader for the Chrome/V8 .heapsnapshot JSON wire format
// ABOUTME: Decodes the top-level object key by key so the nodes/edges arrays never round-trip through []interface{}

package v8json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prateek/heapsnap/loader"
	"github.com/prateek/heapsnap/snapshot"
)

func init() {
	loader.Register(&Loader{})
}

// Loader implements loader.Loader for the standard Chrome DevTools /
// `v8::HeapProfiler::TakeHeapSnapshot` JSON export format.
type Loader struct {
	// OnProgress, when set, is called once per top-level key as it finishes
	// decoding. loader.Open constructs loaders with this left nil; callers
	// that want load-time progress construct a Loader directly instead of
	// going through the registry.
	OnProgress snapshot.ProgressFunc
}

// sniffPrefixLen is how much of the detection prefix CanLoad looks at; far
// smaller than the registry's full buffered prefix since the "snapshot" key
// is always one of the first few keys in the file.
const sniffPrefixLen = 512

// CanLoad reports whether r starts a JSON object whose keys include
// "snapshot" before the prefix runs out. It never reads past what r gives it
// and tolerates a truncated prefix.
func (l *Loader) CanLoad(r io.Reader) bool {
	buf := make([]byte, sniffPrefixLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false
	}
	buf = buf[:n]

	dec := json.NewDecoder(bytes.NewReader(buf))
	tok, err := dec.Token()
	if err != nil {
		return false
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return false
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return false
		}
		if key, ok := keyTok.(string); ok && key == "snapshot" {
			return true
		}
		var discard json.RawMessage
		if err := dec.Decode(&discard); err != nil {
			return false
		}
	}
	return false
}

// metaEnvelope mirrors the wire shape of the top-level "snapshot" object.
// It's kilobytes, not megabytes, so decoding it whole (rather than
// streaming it field by field like nodes/edges) is fine.
type metaEnvelope struct {
	Meta struct {
		NodeFields              []string          `json:"node_fields"`
		NodeTypes               []json.RawMessage `json:"node_types"`
		EdgeFields              []string          `json:"edge_fields"`
		EdgeTypes               []json.RawMessage `json:"edge_types"`
		TraceFunctionInfoFields []string          `json:"trace_function_info_fields"`
		TraceNodeFields         []string          `json:"trace_node_fields"`
		SampleFields            []string          `json:"sample_fields"`
		LocationFields          []string          `json:"location_fields"`
	} `json:"meta"`
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
}

// Load streams r's top-level object key by key, decoding the large flat
// arrays (nodes, edges, locations, samples, trace_function_infos, trace_tree)
// straight into []uint32 via token-mode decoding rather than through
// []interface{}, and decodes strings into []string the same way.
func (l *Loader) Load(r io.Reader) (*snapshot.Raw, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("v8json: reading opening token: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("v8json: expected top-level object, got %v", tok)
	}

	var raw snapshot.Raw
	var env metaEnvelope
	haveMeta := false

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("v8json: reading key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("v8json: non-string key %v", keyTok)
		}

		switch key {
		case "snapshot":
			err = dec.Decode(&env)
			haveMeta = err == nil
		case "nodes":
			raw.Nodes, err = decodeUint32Array(dec)
		case "edges":
			raw.Edges, err = decodeUint32Array(dec)
		case "locations":
			raw.Locations, err = decodeUint32Array(dec)
		case "samples":
			raw.Samples, err = decodeUint32Array(dec)
		case "trace_function_infos":
			raw.TraceFunctionInfos, err = decodeUint32Array(dec)
		case "trace_tree":
			raw.TraceTree, err = decodeNestedUint32Array(dec)
		case "strings":
			raw.Strings, err = decodeStringArray(dec)
		default:
			var discard json.RawMessage
			err = dec.Decode(&discard)
		}
		if err != nil {
			return nil, fmt.Errorf("v8json: decoding %q: %w", key, err)
		}
		if l.OnProgress != nil {
			l.OnProgress("Parsing "+key, 0, 0)
		}
	}
	if _, err := dec.Token(); err != nil { // closing }
		return nil, fmt.Errorf("v8json: reading closing token: %w", err)
	}
	if !haveMeta {
		return nil, fmt.Errorf("v8json: missing top-level \"snapshot\" key")
	}

	nf := len(env.Meta.NodeFields)
	if nf > 0 && len(raw.Nodes)%nf == 0 && env.NodeCount > 0 && len(raw.Nodes)/nf != env.NodeCount {
		return nil, fmt.Errorf("v8json: node_count %d disagrees with decoded nodes array (%d entries)", env.NodeCount, len(raw.Nodes)/nf)
	}
	ef := len(env.Meta.EdgeFields)
	if ef > 0 && len(raw.Edges)%ef == 0 && env.EdgeCount > 0 && len(raw.Edges)/ef != env.EdgeCount {
		return nil, fmt.Errorf("v8json: edge_count %d disagrees with decoded edges array (%d entries)", env.EdgeCount, len(raw.Edges)/ef)
	}

	raw.Meta, err = buildMeta(env)
	if err != nil {
		return nil, err
	}
	// The gc-roots pseudo-node is always the first node V8 serializes.
	raw.RootIndex = 0

	return &raw, nil
}

func buildMeta(env metaEnvelope) (snapshot.Meta, error) {
	m := snapshot.Meta{
		NodeFields:     env.Meta.NodeFields,
		EdgeFields:     env.Meta.EdgeFields,
		LocationFields: env.Meta.LocationFields,
		SampleFields:   env.Meta.SampleFields,
	}

	if idx := indexOf(env.Meta.NodeFields, "type"); idx >= 0 && idx < len(env.Meta.NodeTypes) {
		enum, err := decodeEnum(env.Meta.NodeTypes[idx])
		if err != nil {
			return snapshot.Meta{}, fmt.Errorf("v8json: decoding node type enum: %w", err)
		}
		m.NodeTypeEnum = enum
	}
	if idx := indexOf(env.Meta.EdgeFields, "type"); idx >= 0 && idx < len(env.Meta.EdgeTypes) {
		enum, err := decodeEnum(env.Meta.EdgeTypes[idx])
		if err != nil {
			return snapshot.Meta{}, fmt.Errorf("v8json: decoding edge type enum: %w", err)
		}
		m.EdgeTypeEnum = appendInvisibleEdgeType(enum)
	}
	return m, nil
}

// appendInvisibleEdgeType appends the synthetic "invisible" edge type V8
// never serializes itself (spec.md §6); DevTools assigns it this way so
// retainer views can mark an edge invisible without the raw dump carrying
// that enum value.
func appendInvisibleEdgeType(enum []string) []string {
	for _, name := range enum {
		if name == "invisible" {
			return enum
		}
	}
	return append(enum, "invisible")
}

func indexOf(fields []string, name string) int {
	for i, f := range fields {
		if f == name {
			return i
		}
	}
	return -1
}

// decodeEnum unmarshals one node_types/edge_types entry that is itself a
// string enum (as opposed to a plain "string"/"number" type tag).
func decodeEnum(raw json.RawMessage) ([]string, error) {
	var enum []string
	if err := json.Unmarshal(raw, &enum); err != nil {
		return nil, fmt.Errorf("expected string array, got %s", raw)
	}
	return enum, nil
}

// decodeUint32Array streams a flat JSON number array into []uint32 without
// ever materializing a []interface{} copy of it.
func decodeUint32Array(dec *json.Decoder) ([]uint32, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("expected array, got %v", tok)
	}
	var out []uint32
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		v, err := uint32FromToken(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if _, err := dec.Token(); err != nil { // closing ]
		return nil, err
	}
	return out, nil
}

// decodeNestedUint32Array flattens trace_tree's recursive
// [id, function_info_index, count, size, children...] array-of-arrays shape
// into a single []uint32 in encounter order; this engine passes trace_tree
// through untouched (see snapshot.Raw), so preserving traversal order is all
// that matters.
func decodeNestedUint32Array(dec *json.Decoder) ([]uint32, error) {
	var out []uint32
	var walk func() error
	walk = func() error {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case json.Delim:
			if t != '[' {
				return fmt.Errorf("expected array, got %v", t)
			}
			for dec.More() {
				if err := walk(); err != nil {
					return err
				}
			}
			_, err := dec.Token() // closing ]
			return err
		default:
			v, err := uint32FromToken(tok)
			if err != nil {
				return err
			}
			out = append(out, v)
			return nil
		}
	}
	if err := walk(); err != nil {
		return nil, err
	}
	return out, nil
}

func uint32FromToken(tok json.Token) (uint32, error) {
	n, ok := tok.(json.Number)
	if !ok {
		return 0, fmt.Errorf("expected number, got %v", tok)
	}
	v, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("parsing number %q: %w", n, err)
	}
	if v < 0 || v > int64(^uint32(0)) {
		return 0, fmt.Errorf("value %d out of uint32 range", v)
	}
	return uint32(v), nil
}

func decodeStringArray(dec *json.Decoder) ([]string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("expected array, got %v", tok)
	}
	var out []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		s, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %v", tok)
		}
		out = append(out, s)
	}
	if _, err := dec.Token(); err != nil { // closing ]
		return nil, err
	}
	return out, nil
}
