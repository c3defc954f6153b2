package delta

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPush_MergesTextWithEqualAttributes(t *testing.T) {
	d := New(
		Insert("bo", Attributes{"bold": true}),
		Insert("ld", Attributes{"bold": true}),
		Insert(" ", nil),
		Insert("\n", nil),
	)

	require.Len(t, d.Ops, 2)
	assert.Equal(t, "bold", d.Ops[0].Insert)
	assert.Equal(t, " \n", d.Ops[1].Insert)
}

func TestPush_DoesNotMergeEmbeds(t *testing.T) {
	d := New(
		InsertEmbed(Embed{Type: "hr", Value: true}, nil),
		InsertEmbed(Embed{Type: "hr", Value: true}, nil),
	)
	assert.Len(t, d.Ops, 2)
}

func TestPush_DropsZeroLengthOps(t *testing.T) {
	d := New(Retain(0, nil), Insert("", nil), Delete(0))
	assert.Empty(t, d.Ops)
}

func TestPush_MergesRetainsAndDeletes(t *testing.T) {
	d := New(Retain(2, nil), Retain(3, nil), Delete(1), Delete(2))
	require.Len(t, d.Ops, 2)
	assert.Equal(t, 5, d.Ops[0].Retain)
	assert.Equal(t, 3, d.Ops[1].Delete)
}

func TestLengthAndText_CountRunesAndEmbeds(t *testing.T) {
	d := New(
		Insert("héllo", nil),
		InsertEmbed(Embed{Type: "image", Value: "x.png"}, nil),
		Insert("\n", nil),
	)
	assert.Equal(t, 7, d.Length())
	assert.Equal(t, "héllo\uFFFC\n", d.Text())
}

func TestAttributesCompose(t *testing.T) {
	base := Attributes{"bold": true, "italic": true}

	got := base.Compose(Attributes{"bold": false, "underline": true})
	assert.Equal(t, Attributes{"italic": true, "underline": true}, got)

	assert.Nil(t, Attributes{"bold": true}.Compose(Attributes{"bold": nil}))
	assert.Equal(t, Attributes{"bold": true}, base, "compose must not mutate the receiver")
}

func TestTransformPosition(t *testing.T) {
	tests := []struct {
		name   string
		pos    int
		change Delta
		want   int
	}{
		{"insert before", 5, New(Retain(2, nil), Insert("abc", nil)), 8},
		{"insert at position shifts right", 5, New(Retain(5, nil), Insert("x", nil)), 6},
		{"insert after", 5, New(Retain(6, nil), Insert("x", nil)), 5},
		{"delete before", 5, New(Retain(1, nil), Delete(2)), 3},
		{"delete spanning position", 5, New(Retain(3, nil), Delete(4)), 3},
		{"delete after", 5, New(Retain(5, nil), Delete(4)), 5},
		{"format only", 5, New(Retain(3, nil), Retain(1, Attributes{"header": 1})), 5},
		{"delete then insert at same index", 7, New(Delete(6), Insert("bold", nil)), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TransformPosition(tt.pos, tt.change))
		})
	}
}

func TestOpJSON_WireForm(t *testing.T) {
	d := New(
		Insert("site", Attributes{"link": "http://a.com"}),
		InsertEmbed(Embed{Type: "image", Value: "http://x/y.png"}, nil),
		Insert("\n", Attributes{"header": 2}),
	)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ops":[
		{"insert":"site","attributes":{"link":"http://a.com"}},
		{"insert":{"image":"http://x/y.png"}},
		{"insert":"\n","attributes":{"header":2}}
	]}`, string(data))

	var back Delta
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d, back, "header level must decode as int")
}

func TestOpJSON_RejectsMalformedEmbed(t *testing.T) {
	var op Op
	err := json.Unmarshal([]byte(`{"insert":{"image":"a","hr":true}}`), &op)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one key")
}
