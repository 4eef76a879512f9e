package viewtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParser_ParseComponentAndProperties(t *testing.T) {
	p := NewParser()
	content := "$my_component\n\tproperty_name value\n\tbinding_prop <= bound_value\n\ttwo_way_prop <=> bound_value2"

	result := p.Parse(content)

	require.Len(t, result.Components, 1)
	require.Equal(t, "$my_component", result.Components[0].Name)
	require.Len(t, result.Components[0].Properties, 3)

	props := result.Components[0].Properties
	require.Equal(t, "property_name", props[0].Name)
	require.Equal(t, "value", props[0].Value)
	require.False(t, props[0].IsBinding)

	require.Equal(t, "binding_prop", props[1].Name)
	require.True(t, props[1].IsBinding)
	require.Equal(t, "one-way", props[1].BindingType)
	require.Equal(t, "bound_value", props[1].Value)

	require.Equal(t, "two_way_prop", props[2].Name)
	require.Equal(t, "two-way", props[2].BindingType)
}

func TestParser_PropertyOutsideComponentIsAnError(t *testing.T) {
	p := NewParser()
	content := "\tproperty value"
	result := p.Parse(content)
	require.NotEmpty(t, result.Errors)
	require.Equal(t, "error", result.Errors[0].Severity)
}

func TestParser_GetCurrentComponent_NestedComponents(t *testing.T) {
	p := NewParser()
	content := "$my_app $mol_view\n\tsub /\n\t\t<= Button $mol_button_major\n\t\t\ttitle @ \\Subscribe\n\tother_prop value"

	require.Equal(t, "$mol_button_major", p.GetCurrentComponent(content, Position{Line: 3, Character: 8}))
	require.Equal(t, "$my_app", p.GetCurrentComponent(content, Position{Line: 4, Character: 5}))
}

func TestParser_GetWordRangeAtPosition(t *testing.T) {
	p := NewParser()
	content := "$component_name\n\tproperty_value"

	r := p.GetWordRangeAtPosition(content, Position{Line: 0, Character: 5})
	require.NotNil(t, r)
	require.Equal(t, Position{Line: 0, Character: 0}, r.Start)
	require.Equal(t, Position{Line: 0, Character: 15}, r.End)
}

func TestParser_GetWordRangeAtPosition_EmptyLineReturnsNil(t *testing.T) {
	p := NewParser()
	r := p.GetWordRangeAtPosition("$a\n\n\tb", Position{Line: 1, Character: 0})
	require.Nil(t, r)
}

func TestParser_ValidateSyntax_DuplicateComponent(t *testing.T) {
	p := NewParser()
	content := "$component\n\tprop1 value\n$component\n\tprop2 value"

	errs := p.ValidateSyntax(content)
	require.NotEmpty(t, errs)

	found := false
	for _, e := range errs {
		if e.Severity == "warning" {
			found = true
		}
	}
	require.True(t, found)
}

func TestParser_ValidateSyntax_InvalidPropertyName(t *testing.T) {
	p := NewParser()
	content := "$component\n\t123bad value"

	errs := p.ValidateSyntax(content)
	found := false
	for _, e := range errs {
		if e.Severity == "error" {
			found = true
		}
	}
	require.True(t, found)
}

func TestParser_ValidateSyntax_ValidContentHasNoErrors(t *testing.T) {
	p := NewParser()
	content := "$component\n\tproperty value\n\tbinding <= bound"

	errs := p.ValidateSyntax(content)
	for _, e := range errs {
		require.NotEqual(t, "error", e.Severity)
	}
}
