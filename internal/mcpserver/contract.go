package mcpserver

// MarkupClassContract documents the classes that normalized entries are
// built from, so that LLM consumers can read definitions structurally.
const MarkupClassContract = `# oedify Markup Class Vocabulary

Every definition returned by lookup_entry or preview_markup is HTML built
from the legacy markup. Structure is carried by the ` + "`class`" + ` attribute of
` + "`span`" + `, ` + "`div`" + ` and ` + "`blockquote`" + ` elements.

## Entry head

| Class | Element | Meaning |
|-------|---------|---------|
| headword | span | The headword, prepended unless the entry already opens with one |
| phonetic | span | Pronunciation |
| n | span | Restated headword opening a homograph section |

## Structural markers

| Class | Label shape | Example |
|-------|-------------|---------|
| major-division | Roman numeral | ` + "`IV.`" + ` |
| pos | single capital letter | ` + "`A.`" + ` |
| senses | arabic numeral | ` + "`3.`" + ` |
| subsenses | lowercase letter | ` + "`b.`" + ` |

A combined label such as ` + "`A. IV.`" + ` becomes two adjacent spans, in label order.

## Regions

| Class | Element | Meaning |
|-------|---------|---------|
| etymology | div | Etymology block |
| etymology-main | blockquote | First paragraph of the etymology |
| etymology-notes | blockquote | Indented etymology note |
| forms | div/span | Variant forms section |
| definition-partial | blockquote | Continuation of the preceding sense |
| usage-note | blockquote | Usage note following a sense |
| subheading | blockquote | Asterisked subheading |
| addendum | blockquote | Additions following the addendum separator |
| quotations | div | Dated quotation paragraph |

## Inline

| Class | Meaning |
|-------|---------|
| quotes | Quotation text |
| author | Cited author |
| title | Cited work |
| reference | Volume, chapter or page reference |
| line-number | Line reference |
| translator | Translator abbreviation |
| abbreviation | Abbreviation token |
| same-as | "same as" abbreviation |
| kref, x | Cross-reference |
| small-cap-letter | Small capital |

## Rules

1. Classes are a closed set. Anything not listed is legacy markup passed through.
2. Quotations are never a source of synonyms.
3. Homographs are returned as separate entries ordered by their Roman index.
`
