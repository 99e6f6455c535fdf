package toolbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolHandler(t *testing.T) {
	tool := Tool{
		Name:        "echo",
		Description: "Echoes input back",
		Params:      []Param{{Name: "text", Required: true}},
		Handler: func(_ context.Context, args Args) (string, error) {
			return args["text"], nil
		},
	}

	result, err := tool.Handler(context.Background(), Args{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
}

func TestDescriptor_JSONSchema(t *testing.T) {
	d := Descriptor{
		Name:        "get_weather",
		Description: "Get the weather",
		Params: []Param{
			{Name: "city", Required: true},
			{Name: "units", Description: "metric or imperial"},
		},
	}

	var schema struct {
		Type       string `json:"type"`
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	require.NoError(t, json.Unmarshal(d.JSONSchema(), &schema))

	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"city"}, schema.Required)
	require.Len(t, schema.Properties, 2)
	assert.Equal(t, "string", schema.Properties["city"].Type)
	assert.Equal(t, "The city parameter", schema.Properties["city"].Description)
	assert.Equal(t, "string", schema.Properties["units"].Type)
	assert.Equal(t, "metric or imperial", schema.Properties["units"].Description)
}

func TestDescriptor_JSONSchema_NoParams(t *testing.T) {
	d := Descriptor{Name: "now"}
	assert.JSONEq(t, `{"type":"object","properties":{},"required":[]}`, string(d.JSONSchema()))
}

func TestTool_DescriptorCopiesParams(t *testing.T) {
	tool := Tool{Name: "x", Params: []Param{{Name: "a"}}}
	d := tool.Descriptor()
	d.Params[0].Name = "changed"

	assert.Equal(t, "a", tool.Params[0].Name)
}

type weatherInput struct {
	City  string `tool:"city" desc:"City to look up"`
	Units string `tool:"units,optional"`
	Note  string
	Skip  string `tool:"-"`
	inner string //nolint:unused
}

func TestFromFunc(t *testing.T) {
	tool, err := FromFunc("get_weather", "Get the weather for a city.\n\nMore detail here.",
		func(_ context.Context, in weatherInput) (string, error) {
			return in.City + "/" + in.Units + "/" + in.Note, nil
		})
	require.NoError(t, err)

	assert.Equal(t, "get_weather", tool.Name)
	assert.Equal(t, "Get the weather for a city.", tool.Description)
	assert.Equal(t, []Param{
		{Name: "city", Description: "City to look up", Required: true},
		{Name: "units", Required: false},
		{Name: "note", Required: true},
	}, tool.Params)

	out, err := tool.Handler(context.Background(), Args{"city": "Cairo", "note": "n"})
	require.NoError(t, err)
	assert.Equal(t, "Cairo//n", out)
}

func TestFromFunc_RejectsNonString(t *testing.T) {
	type bad struct {
		Count int
	}

	_, err := FromFunc("count", "", func(context.Context, bad) (string, error) { return "", nil })
	assert.ErrorContains(t, err, "must be a string")
}

func TestFromFunc_RejectsNonStruct(t *testing.T) {
	_, err := FromFunc("s", "", func(context.Context, string) (string, error) { return "", nil })
	assert.ErrorContains(t, err, "must be a struct")
}

func TestMustFromFunc_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustFromFunc("s", "", func(context.Context, int) (string, error) { return "", nil })
	})
}
