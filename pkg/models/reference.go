package models

// ReferenceRecord is a drug label entry from an external regulatory database.
// It is read-only.
type ReferenceRecord struct {
	BrandNames        []string           `json:"brand_names"`
	GenericNames      []string           `json:"generic_names"`
	ManufacturerNames []string           `json:"manufacturer_names"`
	ProductTypes      []string           `json:"product_types,omitempty"`
	DosageForms       []string           `json:"dosage_forms,omitempty"`
	Routes            []string           `json:"routes,omitempty"`
	ActiveIngredients []ActiveIngredient `json:"active_ingredients,omitempty"`
	Purpose           []string           `json:"purpose,omitempty"`
	Indications       []string           `json:"indications,omitempty"`
	Warnings          []string           `json:"warnings,omitempty"`
	AdverseReactions  []string           `json:"adverse_reactions,omitempty"`
	Interactions      []string           `json:"interactions,omitempty"`
}

// ActiveIngredient pairs an ingredient with its strength.
type ActiveIngredient struct {
	Name     string `json:"name"`
	Strength string `json:"strength,omitempty"`
}

// BrandDictionaryEntry maps a normalized imprint substring to a known regional brand.
type BrandDictionaryEntry struct {
	Key         string   `json:"key" yaml:"key"`
	BrandName   string   `json:"brand_name" yaml:"brand"`
	GenericName []string `json:"generic_name" yaml:"generic"`
	Uses        []string `json:"uses" yaml:"uses"`
	Strength    string   `json:"strength,omitempty" yaml:"strength"`
}
