package hcladapter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vk/modelgraph/internal/indexer"
)

// translateIndex converts the wire forms of an index expression. At most
// one of the flat and per-dimension forms may be present.
func translateIndex(flat *[]int, dims *[]string) (*indexer.Index, error) {
	if flat != nil && dims != nil {
		return nil, fmt.Errorf("src_indices and src_dims are mutually exclusive")
	}
	if flat != nil {
		positions := make([]int, len(*flat))
		copy(positions, *flat)
		return indexer.NewFlat(positions), nil
	}
	if dims == nil {
		return nil, nil
	}

	parsed := make([]indexer.Dim, 0, len(*dims))
	for _, spec := range *dims {
		dim, err := parseDim(spec)
		if err != nil {
			return nil, fmt.Errorf("src_dims entry %q: %w", spec, err)
		}
		parsed = append(parsed, dim)
	}
	return indexer.NewDims(parsed...), nil
}

// parseDim interprets one per-dimension selector: ":" selects the whole
// dimension, "a:b" and "a:b:s" are slices with omittable bounds, and a
// comma list gives explicit positions.
func parseDim(spec string) (indexer.Dim, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return indexer.Dim{}, fmt.Errorf("empty selector")
	}
	if spec == ":" {
		return indexer.Dim{All: true}, nil
	}

	if strings.Contains(spec, ":") {
		parts := strings.Split(spec, ":")
		if len(parts) > 3 {
			return indexer.Dim{}, fmt.Errorf("too many ':' separators")
		}
		slice := &indexer.Slice{Step: 1}
		if v, err := parseBound(parts[0]); err != nil {
			return indexer.Dim{}, err
		} else {
			slice.Start = v
		}
		if v, err := parseBound(parts[1]); err != nil {
			return indexer.Dim{}, err
		} else {
			slice.Stop = v
		}
		if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
			step, err := strconv.Atoi(strings.TrimSpace(parts[2]))
			if err != nil {
				return indexer.Dim{}, fmt.Errorf("invalid step: %w", err)
			}
			slice.Step = step
		}
		return indexer.Dim{Slice: slice}, nil
	}

	var positions []int
	for _, part := range strings.Split(spec, ",") {
		pos, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return indexer.Dim{}, fmt.Errorf("invalid position %q", part)
		}
		positions = append(positions, pos)
	}
	return indexer.Dim{Indices: positions}, nil
}

// parseBound parses one optional slice bound; empty means unset.
func parseBound(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid bound %q", raw)
	}
	return &v, nil
}
