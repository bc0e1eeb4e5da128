// Package prompt renders output-formatting preferences into the
// instruction string sent to the OCR backend. Build is a pure function:
// identical options always produce byte-identical output, and the
// paragraph order is part of the contract.
package prompt

import "strings"

// Output format identifiers. These double as configuration values and
// as clipboard format hints downstream.
const (
	FormatPlainText = "plain_text"
	FormatMarkdown  = "markdown"
	FormatHTML      = "html"
	FormatJSON      = "json"
	FormatLaTeX     = "latex"
	FormatRTF       = "rtf"
	FormatXML       = "xml"
)

// Options are the independent toggles that shape the instruction string.
// The pretty/original mutual exclusion is enforced by the configuration
// layer before Options is built, never here.
type Options struct {
	Format                    string
	PrettyFormatting          bool
	OriginalFormatting        bool
	OutputLanguage            string // empty keeps the source language
	LatexMath                 bool
	SpellCheck                bool
	LowConfidenceHighlighting bool
	ContextualGrouping        bool
	AccessibilityAltText      bool
	SmartContext              bool
}

var formatExpectations = map[string]string{
	FormatPlainText: "Output as plain text while preserving readability and structure. Use line breaks to separate paragraphs.",

	FormatHTML: "Convert to semantic HTML5 that preserves both structure and presentation. Use appropriate " +
		"tags (<header>, <article>, <section>, <p>, <strong>, <em>, etc.) and attributes " +
		"(class, style) to maintain visual hierarchy and formatting. Ensure valid DOM structure " +
		"and accessibility.",

	FormatJSON: "Structure as a semantic JSON document with clear hierarchy. Include 'type', 'content', " +
		"and 'style' properties to capture structure and formatting. Example: " +
		"{'type': 'paragraph', 'content': 'text', 'style': {'bold': true}}. Maintain " +
		"relationships between elements.",

	FormatRTF: "Generate a complete RTF document using standard control codes (\\b, \\i, \\par, etc.) " +
		"to preserve formatting. Include document-level properties and styling. Handle " +
		"complex elements like tables (\\trowd, \\cell) and lists while maintaining " +
		"compatibility.",

	FormatXML: "Create a semantic XML structure with clear hierarchy. Use elements for content " +
		"(<paragraph>, <list>, <table>) and attributes for styling (font-weight, " +
		"font-style). Include metadata and maintain valid XML syntax. Example: " +
		"<text style='bold'>content</text>.",

	FormatLaTeX: "Generate a complete LaTeX document with appropriate structure and formatting. " +
		"Use semantic commands (\\section{}, \\textbf{}, \\begin{itemize}, etc.) and " +
		"proper environments. Handle math mode appropriately ($...$ for inline, " +
		"\\[ ... \\] for display). Include necessary packages.",

	FormatMarkdown: "Convert to idiomatic Markdown that balances readability with formatting fidelity. " +
		"Use native syntax (# for headings, ** for bold, * for italic, - for lists, " +
		"| for tables) where possible. Fall back to HTML spans for complex formatting. " +
		"Maintain clear document structure.",
}

const (
	stylingInstruction = "Preserve all visual styling (bold, italic, alignment, etc.) using the appropriate syntax and capabilities of the target format."

	prettyInstruction = "Reconstruct the text to improve readability. Remove unnecessary line breaks, adjust paragraphing, and ensure the output is polished and easy to read."

	originalInstruction = "Preserve the source document's layout exactly as it appears. Retain all original line breaks, indentation, spacing, and alignment."

	latexMathInstruction = "Convert math equations into LaTeX; For inline formulas, enclose the formula in $…$. For displayed formulas, use $$…$$."

	spellCheckInstruction = "Fix all OCR and spelling errors while maintaining any styling/formatting as specified in the above instructions. Use context of surrounding text when needed for corrections."

	lowConfidenceInstruction = "Highlight elements with low OCR confidence using the marker '[?]' to flag them for review."

	groupingInstruction = "Group related content intelligently. For example, combine captions with corresponding charts or diagrams to present cohesive blocks of information."

	altTextInstruction = "Generate descriptive alternative text (alt text) for images or graphical elements using the format [alt text: description]."

	smartContextInstruction = "Extract annotations, side notes, or comments. Include spatial clues to describe relationships, such as 'This caption appears below the image.'"

	closingInstruction = "Extract the content from the image, adhering to the instructions above."
)

// Build renders opts into the backend instruction string. Paragraphs are
// emitted in a fixed order: format base, styling preservation, then one
// paragraph per enabled toggle, then the closing extraction instruction.
// The LaTeX-math paragraph is skipped when the output format is already
// LaTeX.
func Build(opts Options) string {
	var b strings.Builder
	b.WriteString("Process the provided content in the image. Follow these instructions:\n")
	b.WriteString("<instructions>\n")

	expectation, ok := formatExpectations[opts.Format]
	if !ok {
		expectation = "Invalid format type specified."
	}
	paragraph(&b, expectation)
	paragraph(&b, stylingInstruction)

	if opts.PrettyFormatting {
		paragraph(&b, prettyInstruction)
	}
	if opts.OriginalFormatting {
		paragraph(&b, originalInstruction)
	}
	if opts.OutputLanguage != "" {
		paragraph(&b, "Detect the text's language and translate it into "+opts.OutputLanguage+".")
	}
	if opts.LatexMath && opts.Format != FormatLaTeX {
		paragraph(&b, latexMathInstruction)
	}
	if opts.SpellCheck {
		paragraph(&b, spellCheckInstruction)
	}
	if opts.LowConfidenceHighlighting {
		paragraph(&b, lowConfidenceInstruction)
	}
	if opts.ContextualGrouping {
		paragraph(&b, groupingInstruction)
	}
	if opts.AccessibilityAltText {
		paragraph(&b, altTextInstruction)
	}
	if opts.SmartContext {
		paragraph(&b, smartContextInstruction)
	}

	b.WriteString("</instructions>\n")
	b.WriteString(closingInstruction)
	return b.String()
}

func paragraph(b *strings.Builder, text string) {
	b.WriteString(text)
	b.WriteString("\n\n")
}
