/*
Package atomicfile writes files so that readers either see the old
content or the complete new content, never a partially written file.

Data goes to a temporary file next to the destination which is renamed
over the destination on Close(). An error in Write() or Close() removes
the temporary file.

	func save(path string, data []byte) error {
		f, err := atomicfile.New(path)
		if err != nil {
			return err
		}
		// no-op after successful Close()
		defer f.RemoveIfNotClosed()

		if _, err = f.Write(data); err != nil {
			return err
		}
		return f.Close()
	}
*/
package atomicfile
