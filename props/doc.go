/*
Package props reads, edits and writes .properties files without losing
their structure.

A Store remembers every line of the file it was loaded from: properties
in the order they appeared and comment / blank lines at their original
position. Saving a Store writes the lines back in the same order, so a
program can change a few values in a hand-edited file and leave
everything else (comments, grouping, ordering) alone:

	s := props.New()
	if err := s.Load(f); err != nil {
		return err
	}
	s.Put("db.host", "10.0.0.5")
	s.Remove("db.legacy")
	return s.Save(w, "")

The file format is the classic one:

  - the file is ISO-8859-1; other characters are written as \uXXXX
  - a line that is blank or whose first non-blank character is # or !
    is a comment
  - a property line is <key><separator><value>, the separator being
    the first unescaped '=', ':' or whitespace
  - a line ending with an odd number of backslashes continues on the
    next line (leading whitespace of the next line is dropped)
  - \t \r \n \f \uXXXX are recognized escapes; any other \X is X

Keys are unique. Putting an existing key changes the value in place and
keeps its position.
*/
package props
