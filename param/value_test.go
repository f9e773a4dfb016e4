package param

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratorIntBounds(t *testing.T) {
	g, err := NewGenerator("{int,1,10}", nil, 1)
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		v, err := g.NextValue()
		require.NoError(t, err)
		iv := v.(int64)
		require.GreaterOrEqual(t, iv, int64(1))
		require.Less(t, iv, int64(10))
	}
}

// S2: boolean percent-true, 10000 draws, |true| in [2700,3300] for {boolean,30}.
func TestGeneratorBooleanPercent(t *testing.T) {
	g, err := NewGenerator("{boolean,30}", nil, 42)
	require.NoError(t, err)
	trueCount := 0
	for i := 0; i < 10000; i++ {
		v, err := g.NextValue()
		require.NoError(t, err)
		if v.(bool) {
			trueCount++
		}
	}
	require.GreaterOrEqual(t, trueCount, 2700)
	require.LessOrEqual(t, trueCount, 3300)
}

// S3: string alphabet, every length in [5,10], chars in [a-zA-Z0-9].
func TestGeneratorStringAlphabet(t *testing.T) {
	g, err := NewGenerator("{string,5,10}", nil, 7)
	require.NoError(t, err)
	for i := 0; i < 500; i++ {
		v, err := g.NextValue()
		require.NoError(t, err)
		s := v.(string)
		require.GreaterOrEqual(t, len(s), 5)
		require.LessOrEqual(t, len(s), 10)
		for _, c := range s {
			require.Contains(t, alphabet, string(c))
		}
	}
}

func TestGeneratorFormat(t *testing.T) {
	g, err := NewGenerator("{int,%05d,1,2}", nil, 1)
	require.NoError(t, err)
	v, err := g.NextValue()
	require.NoError(t, err)
	require.Equal(t, "00001", v)
}

func TestGeneratorValueType(t *testing.T) {
	table := &DataTable{rows: [][]string{{"a", "b"}, {"c", "d"}}}
	g, err := NewGenerator("{value,0,1}", table, 1)
	require.NoError(t, err)
	v, err := g.NextValue()
	require.NoError(t, err)
	require.Contains(t, []string{"b", "d"}, v)
}

func TestGeneratorValueTypeRequiresNonEmptyTable(t *testing.T) {
	_, err := NewGenerator("{value,0,1}", &DataTable{}, 1)
	require.Error(t, err)
}

func TestGeneratorUnknownTypeFatal(t *testing.T) {
	_, err := NewGenerator("{bogus,1,2}", nil, 1)
	require.Error(t, err)
}

func TestGeneratorBracesOptional(t *testing.T) {
	g, err := NewGenerator("int,1,10", nil, 1)
	require.NoError(t, err)
	require.Equal(t, KindInt, g.Kind())
}
