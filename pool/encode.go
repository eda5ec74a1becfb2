package pool

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dudk/timbre"
)

// Format is an encoding of pool contents.
type Format string

// Supported formats.
const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// Encode writes pool contents as a tree of namespaces. Complex values and
// stereo samples are written as pairs.
func Encode(w io.Writer, p *Pool, format Format) error {
	tree := Tree(p)
	switch format {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tree); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: format %q", timbre.ErrNotFound, format)
}

// Tree returns pool contents as nested maps. Sequences become slices,
// single values are kept as is.
func Tree(p *Pool) map[string]interface{} {
	root := make(map[string]interface{})
	for _, name := range p.DescriptorNames() {
		path := strings.Split(name, separator)
		node := root
		for _, ns := range path[:len(path)-1] {
			child, ok := node[ns].(map[string]interface{})
			if !ok {
				child = make(map[string]interface{})
				node[ns] = child
			}
			node = child
		}
		loc := p.index[name]
		if loc.single {
			node[path[len(path)-1]] = plain(p.single[loc.typ][name])
			continue
		}
		values := p.added[loc.typ][name]
		seq := make([]interface{}, len(values))
		for i := range values {
			seq[i] = plain(values[i])
		}
		node[path[len(path)-1]] = seq
	}
	return root
}

// plain converts value to types supported by encoders.
func plain(v interface{}) interface{} {
	switch v := v.(type) {
	case complex128:
		return []float64{real(v), imag(v)}
	case timbre.StereoSample:
		return []float64{v.Left, v.Right}
	case []complex128:
		res := make([][]float64, len(v))
		for i := range v {
			res[i] = []float64{real(v[i]), imag(v[i])}
		}
		return res
	case []timbre.StereoSample:
		res := make([][]float64, len(v))
		for i := range v {
			res[i] = []float64{v[i].Left, v[i].Right}
		}
		return res
	case [][]complex128:
		res := make([][][]float64, len(v))
		for i := range v {
			res[i] = plain(v[i]).([][]float64)
		}
		return res
	}
	return v
}
