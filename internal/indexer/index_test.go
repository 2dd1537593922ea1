package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestShape(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 12, Shape{3, 4}.Size())
	assert.Equal(t, 1, Scalar.Size())
	assert.Equal(t, "(3, 4)", Shape{3, 4}.String())
	assert.Equal(t, "()", Scalar.String())
	assert.True(t, Shape{2}.Equal(Shape{2}))
	assert.True(t, Scalar.Equal(nil))
	assert.False(t, Shape{2, 1}.Equal(Shape{2}))
}

func TestFlattenFlat(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		ix      *Index
		src     Shape
		want    []int
		wantErr bool
	}{
		{name: "identity on nil index", ix: nil, src: Shape{4}, want: []int{0, 1, 2, 3}},
		{name: "simple positions", ix: NewFlat([]int{0, 2}), src: Shape{3}, want: []int{0, 2}},
		{name: "negative positions", ix: NewFlat([]int{-1, -3}), src: Shape{5}, want: []int{4, 2}},
		{name: "repeat is allowed", ix: NewFlat([]int{1, 1}), src: Shape{2}, want: []int{1, 1}},
		{name: "out of range", ix: NewFlat([]int{5}), src: Shape{5}, wantErr: true},
		{name: "negative out of range", ix: NewFlat([]int{-6}), src: Shape{5}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.ix.Flatten(tc.src)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFlattenDims(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		ix      *Index
		src     Shape
		want    []int
		shape   Shape
		wantErr bool
	}{
		{
			name:  "columns 0 and 2 of a 3x3",
			ix:    NewDims(Dim{All: true}, Dim{Indices: []int{0, 2}}),
			src:   Shape{3, 3},
			want:  []int{0, 2, 3, 5, 6, 8},
			shape: Shape{3, 2},
		},
		{
			name:  "row slice with step 2",
			ix:    NewDims(Dim{Slice: &Slice{Step: 2}}, Dim{All: true}),
			src:   Shape{4, 2},
			want:  []int{0, 1, 4, 5},
			shape: Shape{2, 2},
		},
		{
			name:  "negative start slice",
			ix:    NewDims(Dim{Slice: &Slice{Start: intp(-2), Step: 1}}),
			src:   Shape{5},
			want:  []int{3, 4},
			shape: Shape{2},
		},
		{
			name:  "negative step reverses",
			ix:    NewDims(Dim{Slice: &Slice{Step: -1}}),
			src:   Shape{3},
			want:  []int{2, 1, 0},
			shape: Shape{3},
		},
		{
			name:  "stop bound",
			ix:    NewDims(Dim{Slice: &Slice{Stop: intp(2), Step: 1}}),
			src:   Shape{5},
			want:  []int{0, 1},
			shape: Shape{2},
		},
		{
			name:    "rank mismatch",
			ix:      NewDims(Dim{All: true}),
			src:     Shape{2, 2},
			wantErr: true,
		},
		{
			name:    "zero step",
			ix:      NewDims(Dim{Slice: &Slice{Step: 0}}),
			src:     Shape{3},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.ix.Flatten(tc.src)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			shape, err := tc.ix.ResultShape(tc.src)
			require.NoError(t, err)
			assert.True(t, tc.shape.Equal(shape), "result shape %s != %s", shape, tc.shape)
		})
	}
}

// Composing a selection of columns 0 and 2 of a (3,3) source with a
// selection of column 1 of the resulting (3,2) array must address the same
// elements as directly indexing the original source.
func TestComposeAssociativity(t *testing.T) {
	t.Parallel()

	src := Shape{3, 3}
	outer := NewDims(Dim{All: true}, Dim{Indices: []int{0, 2}})

	outerFlat, err := outer.Flatten(src)
	require.NoError(t, err)

	mid, err := outer.ResultShape(src)
	require.NoError(t, err)
	require.True(t, Shape{3, 2}.Equal(mid))

	inner := NewDims(Dim{All: true}, Dim{Indices: []int{1}})
	composed, err := Compose(outerFlat, inner, mid)
	require.NoError(t, err)

	// Column 1 of the (3,2) intermediate is column 2 of the original.
	direct, err := NewDims(Dim{All: true}, Dim{Indices: []int{2}}).Flatten(src)
	require.NoError(t, err)
	assert.Equal(t, direct, composed)
	assert.Equal(t, []int{2, 5, 8}, composed)
}

func TestComposeOutOfRange(t *testing.T) {
	t.Parallel()

	_, err := Compose([]int{0, 1}, NewFlat([]int{2}), Shape{2})
	require.Error(t, err)
}
