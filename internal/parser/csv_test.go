package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCSV(t *testing.T) {
	t.Run("Expect: rows to be keyed by the header names", func(t *testing.T) {
		data := "First Name,Profile URL\nJane,https://www.linkedin.com/in/janedoe\nJohn,https://www.linkedin.com/in/johndoe\n"

		rows, err := ParseCSV(strings.NewReader(data))

		assert.NoError(t, err)
		assert.Len(t, rows, 2)
		assert.Equal(t, "Jane", rows[0]["First Name"])
		assert.Equal(t, "https://www.linkedin.com/in/janedoe", rows[0]["Profile URL"])
		assert.Equal(t, "John", rows[1]["First Name"])
	})

	t.Run("Expect: short records to be padded with empty fields", func(t *testing.T) {
		data := "First Name,Last Name,Profile URL\nJane\n"

		rows, err := ParseCSV(strings.NewReader(data))

		assert.NoError(t, err)
		assert.Len(t, rows, 1)
		assert.Equal(t, "Jane", rows[0]["First Name"])
		assert.Equal(t, "", rows[0]["Last Name"])
		assert.Equal(t, "", rows[0]["Profile URL"])
	})

	t.Run("Expect: an error for an empty file", func(t *testing.T) {
		rows, err := ParseCSV(strings.NewReader(""))

		assert.Error(t, err)
		assert.Nil(t, rows)
	})

	t.Run("Expect: a header-only file to produce no rows", func(t *testing.T) {
		rows, err := ParseCSV(strings.NewReader("First Name,Profile URL\n"))

		assert.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("Expect: a malformed line to be skipped, not to sink the file", func(t *testing.T) {
		data := "First Name,Profile URL\nJane,https://www.linkedin.com/in/janedoe\nJo\"hn,broken\nJohn,https://www.linkedin.com/in/johndoe\n"

		rows, err := ParseCSV(strings.NewReader(data))

		assert.NoError(t, err)
		assert.Len(t, rows, 2)
		assert.Equal(t, "Jane", rows[0]["First Name"])
		assert.Equal(t, "John", rows[1]["First Name"])
	})

	t.Run("Expect: quoted fields with embedded commas to be preserved", func(t *testing.T) {
		data := "Location,Profile URL\n\"Austin, TX\",https://www.linkedin.com/in/janedoe\n"

		rows, err := ParseCSV(strings.NewReader(data))

		assert.NoError(t, err)
		assert.Len(t, rows, 1)
		assert.Equal(t, "Austin, TX", rows[0]["Location"])
	})
}
