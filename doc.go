/*
Package portabletext models Portable Text documents at the wire level.

Portable Text is a JSON rich text format: a document is an array of blocks,
each block holds inline spans, and spans reference out-of-line data (link
targets, images) through keys into the block's markDefs. This package
decodes, encodes, validates and inspects such documents. Package convert
builds them from markup event streams and package markdown feeds it from
CommonMark source.

# Decoding and Encoding

	doc, err := portabletext.DecodeString(`[{"_type":"block","children":[{"_type":"span","text":"Hello"}]}]`)
	if err != nil {
		log.Fatal(err)
	}
	out, err := portabletext.EncodeString(doc)

EncodeIndent produces human readable output. Unknown fields, including
explicit nulls, are kept in Raw maps and written back unchanged.

# Node kinds

A Node is a text block (_type "block"), a code block (_type "code") or any
custom object. Text blocks carry style, children and markDefs, list items
add listItem and level. Code blocks carry language and code plus empty
children and markDefs, and never a style:

	[
	  {"_type":"block","style":"h1","children":[{"_type":"span","text":"Hey","marks":[]}],"markDefs":[]},
	  {"_type":"code","language":"go","code":"fmt.Println(1)\n","children":[],"markDefs":[]}
	]

Build nodes fluently:

	block := portabletext.NewBlock("normal").
		AddSpan("Read ").
		AddSpan("the docs", "em", "k1").
		AddLink("k1", "https://example.com")

Image mark definitions hold the resolved src, an optional caption and a
Picture descriptor; MarkDef.Picture reads it back from typed or decoded
values.

# Validation

Validate and ValidateWithOptions return every finding; ValidateDocument
folds them into one error:

	err := portabletext.ValidateDocument(doc, portabletext.ValidationOptions{
		CheckMarkDefRefs: true,
	})
	for _, e := range multierr.Errors(err) {
		fmt.Println(e)
	}

# Traversal

Walk, WalkWithContext, Filter and Transform visit top-level nodes; Filter
and Transform work on clones. PlainText, Links and Headings extract text,
link and image annotations and a table of contents.

# Errors

Decoding errors are *Error values carrying the operation and the JSON path
of the offending value, e.g. "[2].children[1].marks", and wrap one of the
Err* sentinels.
*/
package portabletext
