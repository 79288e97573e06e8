package content

// EditSession records whether the admin form is creating a new article or
// editing an existing one. The zero value is "creating". Only one article
// can be in edit at a time; starting another edit replaces the first.
type EditSession struct {
	editingID string
}

// Creating returns the initial session state.
func Creating() EditSession { return EditSession{} }

// Editing returns the state for an edit of the article with the given id.
// An empty id is the same as Creating.
func Editing(id string) EditSession { return EditSession{editingID: id} }

// EditingID returns the article under edit and whether there is one.
func (s EditSession) EditingID() (string, bool) {
	return s.editingID, s.editingID != ""
}

// IsEditing reports whether an article is loaded into the form.
func (s EditSession) IsEditing() bool { return s.editingID != "" }

func (s EditSession) String() string {
	if s.editingID == "" {
		return "creating"
	}
	return "editing(" + s.editingID + ")"
}
