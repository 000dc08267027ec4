package anki

// Export is the deck.json document of a CrowdAnki export
type Export struct {
	Type        string   `json:"__type__,omitempty"`
	MediaFiles  []string `json:"media_files,omitempty"`
	Notes       []Note   `json:"notes,omitempty"`
	NoteModels  []Model  `json:"note_models,omitempty"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"desc,omitempty"`
	Children    []Export `json:"children,omitempty"`
}

type Note struct {
	Type      string   `json:"__type__,omitempty"`
	Fields    []string `json:"fields,omitempty"`
	GUID      string   `json:"guid,omitempty"`
	ModelUUID string   `json:"note_model_uuid,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Model describes the fields of a note type
type Model struct {
	Type   string  `json:"__type__,omitempty"`
	UUID   string  `json:"crowdanki_uuid,omitempty"`
	Name   string  `json:"name,omitempty"`
	Fields []Field `json:"flds,omitempty"`
}

type Field struct {
	Name string `json:"name,omitempty"`
	Ord  int    `json:"ord"`
}

// MediaFile is a media file found next to deck.json
type MediaFile struct {
	FileName    string
	ContentType string
	FilePath    string
}

// ImportResult summarizes an import. Errors lists problems that did not stop it.
type ImportResult struct {
	DeckID        string   `json:"deck_id"`
	DeckName      string   `json:"deck_name"`
	CardsAdded    int      `json:"cards_added"`
	MediaUploaded int      `json:"media_uploaded"`
	Skipped       int      `json:"skipped"`
	Errors        []string `json:"errors,omitempty"`
}
