package protocol

// Field is one tagged entry of the variable length packet tail: a single
// tag character followed by the raw value.
type Field struct {
	Tag   FieldTag
	Value string
}

// appendField writes one encoded field, preceded by the separator when the
// tail already has content.
func appendField(dst []byte, tag FieldTag, value string) []byte {
	if len(dst) > headerSize {
		dst = append(dst, fieldSeparator)
	}
	dst = append(dst, byte(tag))
	return append(dst, value...)
}

// knownTag reports whether b is one of the catalog field tags. Foreign tags
// are dropped during parsing, not rejected.
func knownTag(b byte) bool {
	switch FieldTag(b) {
	case TagPath, TagTime, TagUnits, TagData, TagSent, TagReceived:
		return true
	}
	return false
}

// ParseTail splits a packet tail into its tagged fields. Chunks are
// separated by commas, but a data field always consumes the remainder of the
// tail verbatim: push payloads may themselves contain separators, so nothing
// after a data tag is structure. Empty chunks and unknown tags are skipped.
func ParseTail(tail []byte) []Field {
	if len(tail) == 0 {
		return nil
	}
	var fields []Field
	for i := 0; i < len(tail); {
		if FieldTag(tail[i]) == TagData {
			fields = append(fields, Field{TagData, string(tail[i+1:])})
			break
		}
		end := i
		for end < len(tail) && tail[end] != fieldSeparator {
			end++
		}
		if end > i && knownTag(tail[i]) {
			fields = append(fields, Field{FieldTag(tail[i]), string(tail[i+1 : end])})
		}
		i = end + 1
	}
	return fields
}
