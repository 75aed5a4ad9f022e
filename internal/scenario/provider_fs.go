package scenario

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FSProvider reads scenario definitions from <base>/<topic>.json.
type FSProvider struct{ base string }

func NewFSProvider(base string) (*FSProvider, error) {
	if base == "" {
		base = "./scenarios/data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSProvider{base: base}, nil
}

func (p *FSProvider) Load(ctx context.Context, topic string) (*Scenario, error) {
	// topic comes from the URL/body; keep it to a bare file name
	name := filepath.Base(filepath.Clean(topic))
	b, err := os.ReadFile(filepath.Join(p.base, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var s Scenario
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s.Topic == "" {
		s.Topic = name
	}
	return &s, nil
}

func (p *FSProvider) Topics(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(p.base)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(out)
	return out, nil
}
