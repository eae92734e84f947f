package books

// BhagavadGita is divided into chapters only.
var BhagavadGita = BookType{
	Code:    "bg",
	Name:    "Bhagavad-gita",
	Grammar: Grammar{Levels: 1},
	DefaultChapters: map[string]int{
		"": 18,
	},
}

// SrimadBhagavatam has numbered songs (cantos), each with chapters.
var SrimadBhagavatam = BookType{
	Code: "sb",
	Name: "Srimad-Bhagavatam",
	Grammar: Grammar{
		Levels:           2,
		Keying:           KeyNumbered,
		DivisionKind:     "song",
		DivisionTitle:    "Canto %d",
		DefaultDivisions: 12,
	},
	DefaultChapters: map[string]int{
		"1": 19, "2": 10, "3": 33, "4": 31, "5": 26, "6": 19,
		"7": 15, "8": 24, "9": 24, "10": 90, "11": 31, "12": 13,
	},
}

// ChaitanyaCharitamrita has three named lilas, each with chapters.
var ChaitanyaCharitamrita = BookType{
	Code: "cc",
	Name: "Chaitanya-charitamrita",
	Grammar: Grammar{
		Levels:       2,
		Keying:       KeyNamed,
		DivisionKind: "lila",
		Divisions: []Division{
			{Number: 1, Name: "adi", Label: "Adi-lila"},
			{Number: 2, Name: "madhya", Label: "Madhya-lila"},
			{Number: 3, Name: "antya", Label: "Antya-lila"},
		},
	},
	DefaultChapters: map[string]int{
		"adi": 17, "madhya": 25, "antya": 20,
	},
}

// DefaultRegistry returns a registry holding the built-in book types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, bt := range []BookType{BhagavadGita, SrimadBhagavatam, ChaitanyaCharitamrita} {
		// built-ins are valid by construction
		_ = r.Register(bt)
	}
	return r
}
