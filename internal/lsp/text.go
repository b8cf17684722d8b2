package lsp

// applyChanges applies incremental edits in order. A change without a range
// replaces the whole buffer.
func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		doc := newDocument([]byte(text))
		start := int(doc.offsetAt(change.Range.Start))
		end := int(doc.offsetAt(change.Range.End))
		if end < start {
			end = start
		}
		text = text[:start] + change.Text + text[end:]
	}
	return text
}
