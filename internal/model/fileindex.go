package model

// FileIndex maps "collection:id" keys to the source file a record was
// compiled from.
type FileIndex map[string]string

// IndexKey returns the FileIndex key for a record.
func IndexKey(c Collection, id string) string {
	return c.Key() + ":" + id
}

// Path returns the source path recorded for a record, or "" when unknown.
// A nil index is valid.
func (idx FileIndex) Path(c Collection, id string) string {
	return idx[IndexKey(c, id)]
}

// Set records the source path of a record.
func (idx FileIndex) Set(c Collection, id, path string) {
	idx[IndexKey(c, id)] = path
}
