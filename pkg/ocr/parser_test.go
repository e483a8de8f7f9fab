package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLabelText_FullLabel(t *testing.T) {
	text := `Crocin Advance
Paracetamol Tablets IP 500 mg
Mfg: GSK Pharma Ltd.
Store below 30C. Keep out of reach of children
Warning: do not exceed the stated dose`

	got := ParseLabelText(text)

	assert.Equal(t, "PARACETAMOL", got.DrugName)
	assert.Equal(t, "PARACETAMOL", got.ActiveIngredients)
	assert.Equal(t, "500 MG", got.Dosage)
	assert.Equal(t, "GSK PHARMA LTD", got.Manufacturer)
	assert.Equal(t, "STORE BELOW 30C", got.Warnings)
	assert.Equal(t, text, got.RawText)
}

func TestParseLabelText_DosagePatternOrder(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Syrup 5 ml contains 250mg", "250MG"},
		{"Vitamin D3 1000 IU\n60 mcg", "60 MCG"},
		{"Ointment 15 g tube, 10 ml", "15 G"},
		{"Drops 10ml", "10ML"},
		{"Cholecalciferol 60000 IU", "60000 IU"},
		{"no strength here", SeePackaging},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLabelText(tt.text).Dosage)
		})
	}
}

func TestParseLabelText_DrugListPrecedence(t *testing.T) {
	// The first line that contains any listed drug wins.
	got := ParseLabelText("Combination pack\nIbuprofen 400mg\nParacetamol 325mg")
	assert.Equal(t, "IBUPROFEN", got.DrugName)

	// Within one line the earliest-listed drug wins, regardless of position.
	got = ParseLabelText("Ibuprofen and Paracetamol tablets")
	assert.Equal(t, "PARACETAMOL", got.DrugName)
}

func TestParseLabelText_UppercaseLineFallback(t *testing.T) {
	got := ParseLabelText("batch 22-11\nDOLO-650\nMICRO LABS LIMITED")

	// "DOLO" is only four letters after stripping digits and dashes.
	assert.Equal(t, "DOLO", got.DrugName)
	assert.Equal(t, "DOLO", got.ActiveIngredients)
}

func TestParseLabelText_FallbackSkipsMGAndLowercase(t *testing.T) {
	got := ParseLabelText("Tablets\n500 MG PACK\nAVIL")

	assert.Equal(t, "AVIL", got.DrugName)
}

func TestParseLabelText_FallbackOnlyScansFirstEightLines(t *testing.T) {
	text := "a1\nb2\nc3\nd4\ne5\nf6\ng7\nh8\nZERODOL"

	got := ParseLabelText(text)

	assert.Equal(t, "a1", got.DrugName, "falls back to the first line")
	assert.Equal(t, SeePackaging, got.ActiveIngredients)
}

func TestParseLabelText_Defaults(t *testing.T) {
	got := ParseLabelText("")

	assert.Equal(t, UnknownDrug, got.DrugName)
	assert.Equal(t, SeePackaging, got.Dosage)
	assert.Equal(t, SeePackaging, got.Manufacturer)
	assert.Equal(t, SeePackaging, got.ActiveIngredients)
	assert.Equal(t, FollowDosageInstruction, got.Warnings)
}

func TestParseLabelText_WarningsJoinUpToThree(t *testing.T) {
	text := "Caution: one\nCaution: two\nCaution: three\nCaution: four"

	got := ParseLabelText(text)

	assert.Equal(t, "CAUTION: ONE. CAUTION: TWO. CAUTION: THREE", got.Warnings)
}

func TestParseLabelText_ManufacturerSecondPattern(t *testing.T) {
	got := ParseLabelText("Manufacturer: Cipla Ltd")

	assert.Equal(t, "CIPLA LTD", got.Manufacturer)
	assert.Equal(t, "CIPLA", got.DrugName)
}

func TestIsDefault(t *testing.T) {
	assert.True(t, IsDefault(SeePackaging))
	assert.True(t, IsDefault(FollowDosageInstruction))
	assert.False(t, IsDefault("500mg"))
}
