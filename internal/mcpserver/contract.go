package mcpserver

// NoteFormatContract describes the note content format that LLM
// consumers should follow when creating or updating notes.
const NoteFormatContract = `# Ansuz Note Format Contract

Every note stored in Ansuz MUST follow this structure.

## Structure

A note's content is a small rich-text HTML fragment, for example:

` + "```" + `html
<p>Meeting with the <strong>#work</strong> team tomorrow.</p>
<p>Agenda: review the #urgent items.</p>
` + "```" + `

## Rules

1. **Content is an HTML fragment**, not a full document. Allowed tags are
   the basic formatting set (` + "`" + `p` + "`" + `, ` + "`" + `strong` + "`" + `, ` + "`" + `em` + "`" + `, ` + "`" + `u` + "`" + `, ` + "`" + `ul` + "`" + `, ` + "`" + `ol` + "`" + `, ` + "`" + `li` + "`" + `, ` + "`" + `h1` + "`" + `-` + "`" + `h3` + "`" + `, ` + "`" + `br` + "`" + `).
2. **Plain-text length is capped at 500 characters.** The cap is measured
   after stripping markup. Updates that exceed it are rejected outright,
   not truncated; keep notes short.
3. **Hashtags become tags.** Any ` + "`" + `#word` + "`" + ` in the text is harvested as a
   lowercase tag on the note. Tags added by hand are never removed by a
   content update.
4. **Categories are derived**, never set directly. The text is matched
   against keyword lists for work, personal, study, and ideas; anything
   else lands in general.
5. **Word count and reading time are derived** from the stripped text at
   200 words per minute. Do not put them in the content.
6. **Titles** are set through the rename operation, not inside the
   content.
7. **The default note** (id ` + "`" + `default-1` + "`" + `) cannot be deleted, and its
   content reverts to the built-in text on every reload.

## Example

Create a note, then set its content to:

` + "```" + `html
<p>Weekly standup notes #work</p>
<ul>
  <li>Alice reviews the design doc</li>
  <li>Bob updates the roadmap before the deadline</li>
</ul>
` + "```" + `

The note ends up tagged ` + "`" + `work` + "`" + `, categorized ` + "`" + `work` + "`" + `, with its word
count and reading time filled in.
`
