package document

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalimu/shule/core"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	lang := en.New()
	uni := ut.New(lang, lang)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	return validate
}

func TestNewDocument_Validate(t *testing.T) {
	validate := newValidator()

	nd := NewDocument{Title: "Admission Form 2026", Category: "admission forms"}
	require.NoError(t, nd.Validate(validate))

	// category is optional
	nd = NewDocument{Title: "Fee Structure"}
	require.NoError(t, nd.Validate(validate))

	// categories are plain labels
	nd = NewDocument{Title: "Fee Structure", Category: "forms/circulars"}
	err := nd.Validate(validate)
	require.Error(t, err)
	verrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok, "want ValidationErrors, got %T", err)
	require.Len(t, verrs, 1)
	assert.Equal(t, "category", verrs[0].Field())

	nd = NewDocument{Category: "forms"}
	err = nd.Validate(validate)
	require.Error(t, err, "title must be required")
}

func TestUpdateDocument_Validate(t *testing.T) {
	validate := newValidator()
	orig := Document{Title: "Old Title", Category: "forms"}

	ud := UpdateDocument{Category: "school circulars"}
	require.NoError(t, ud.Validate(orig, validate))
	assert.Equal(t, "Old Title", ud.Title)

	ud = UpdateDocument{Category: "bad*label"}
	assert.Error(t, ud.Validate(orig, validate))
}
