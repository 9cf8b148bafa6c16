package record

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/prelude/pkg/frame"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

type sample struct {
	Name      string       `json:"name"`
	ID        int          `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	DfA       *frame.Frame `json:"df_a"`
	DfB       *frame.Frame `json:"df_b"`
	Hidden    string       `json:"-"`
	Plain     float64
	private   int
}

type Audit struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

type withEmbedded struct {
	Audit
	Name string `json:"name"`
	Rows *frame.Frame
}

type withPointerEmbed struct {
	*Audit
	Label string `json:"label"`
}

type Chain struct {
	*Chain
	Name string `json:"name"`
}

type Ping struct {
	*Pong
	P int `json:"p"`
}

type Pong struct {
	*Ping
	Q int `json:"q"`
}

func TestDescribe(t *testing.T) {
	d, err := DescribeOf[sample]()
	require.NoError(t, err)

	var names []string
	for _, f := range d.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"name", "id", "created_at", "df_a", "df_b", "Plain"}, names)

	var tables []string
	for _, f := range d.TableFields() {
		tables = append(tables, f.Name)
	}
	assert.Equal(t, []string{"df_a", "df_b"}, tables)
	assert.Len(t, d.ScalarFields(), 4)
	assert.True(t, d.HasTables())

	f, ok := d.Field("created_at")
	require.True(t, ok)
	assert.Equal(t, "CreatedAt", f.GoName)
	assert.Equal(t, KindScalar, f.Kind)
}

func TestDescribePointerType(t *testing.T) {
	a, err := DescribeOf[*sample]()
	require.NoError(t, err)
	b, err := DescribeValue(sample{})
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestDescribeNotRecord(t *testing.T) {
	for _, typ := range []reflect.Type{reflect.TypeOf(1), reflect.TypeOf(map[string]any{}), nil} {
		_, err := Describe(typ)
		assert.ErrorIs(t, err, types.ErrNotRecord)
	}
}

func TestEmbeddedFieldsArePromoted(t *testing.T) {
	d, err := DescribeOf[withEmbedded]()
	require.NoError(t, err)

	var names []string
	for _, f := range d.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"name", "Rows", "owner"}, names)

	v := withEmbedded{Audit: Audit{Owner: "ops", Name: "shadowed"}, Name: "outer"}
	rv := reflect.ValueOf(v)
	owner, _ := d.Field("owner")
	assert.Equal(t, "ops", owner.Get(rv).Interface())
	name, _ := d.Field("name")
	assert.Equal(t, "outer", name.Get(rv).Interface())
}

func TestSetAllocatesEmbeddedPointer(t *testing.T) {
	d, err := DescribeOf[withPointerEmbed]()
	require.NoError(t, err)

	var v withPointerEmbed
	rv := reflect.ValueOf(&v).Elem()
	owner, ok := d.Field("owner")
	require.True(t, ok)
	assert.False(t, owner.Get(rv).IsValid())

	owner.Set(rv, reflect.ValueOf("ops"))
	require.NotNil(t, v.Audit)
	assert.Equal(t, "ops", v.Owner)
}

func TestSelfEmbeddingTerminates(t *testing.T) {
	d, err := DescribeOf[Chain]()
	require.NoError(t, err)
	require.Len(t, d.Fields, 1)
	assert.Equal(t, "name", d.Fields[0].Name)

	d, err = DescribeOf[Ping]()
	require.NoError(t, err)
	var names []string
	for _, f := range d.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"p", "q"}, names)
}

func TestDescribeConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]*Descriptor, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := DescribeOf[withEmbedded]()
			if err == nil {
				results[i] = d
			}
		}(i)
	}
	wg.Wait()
	for _, d := range results {
		assert.Same(t, results[0], d)
	}
}
