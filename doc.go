// Package mdwrap reflows plain text into lines of a maximum width.
//
// The package is built for streaming: characters are pulled from a Source,
// split into alternating text and whitespace tokens, and packed into lines
// that are produced only as the caller asks for them. Neither the tokenizer
// nor the wrapper holds more than the current token and the current line.
//
// Core properties:
//   - Pull-based input through Source, with StringSource and ReaderSource
//   - Whitespace runs collapsed to one space, words split after hyphens
//   - Words longer than the width sliced into width-sized pieces
//   - Separate first-line and continuation indents
//
// Example:
//
//	w, err := mdwrap.New(40, mdwrap.WithIndent("  "))
//	if err != nil {
//		log.Fatal(err)
//	}
//	lines := w.WrapReader(os.Stdin)
//	defer lines.Close()
//	for lines.Next() {
//		fmt.Println(lines.Line())
//	}
//	if err := lines.Err(); err != nil {
//		log.Fatal(err)
//	}
//
// Render and HTTPRender write wrapped lines straight to an io.Writer, and
// HeaderReader strips a leading metadata block before wrapping.
package mdwrap
