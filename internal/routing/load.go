package routing

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/net/http/httpguts"
	"gopkg.in/yaml.v3"
)

// LoadTable reads a YAML routing table. The layout mirrors Table:
//
//	redirects:
//	  - source: /docs
//	    destination: https://docs.near.org
//	    permanent: true
//	rewrites:
//	  - source: /api/analytics/:path*
//	    destination: https://collector.example.com/:path*
//	headers:
//	  - source: /:path*
//	    headers:
//	      - key: Referrer-Policy
//	        value: strict-origin-when-cross-origin
func LoadTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("routing: open table: %w", err)
	}
	defer f.Close()
	return DecodeTable(f)
}

// DecodeTable parses a YAML routing table. Unknown keys are rejected so that
// a misspelt field does not silently drop a rule.
func DecodeTable(r io.Reader) (Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var t Table
	if err := dec.Decode(&t); err != nil {
		if err == io.EOF {
			return Table{}, nil
		}
		return Table{}, fmt.Errorf("routing: decode table: %w", err)
	}
	return t, nil
}

// EncodeTable renders t as YAML.
func EncodeTable(t Table) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return nil, fmt.Errorf("routing: encode table: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func validHeader(h Header) bool {
	return httpguts.ValidHeaderFieldName(h.Key) && httpguts.ValidHeaderFieldValue(h.Value)
}
