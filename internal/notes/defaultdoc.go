package notes

// DefaultNoteID is the stable id of the built-in "about" note.
const DefaultNoteID = "default-1"

// DefaultNoteTitle is its display title.
const DefaultNoteTitle = "About Me"

// DefaultDocument is the canonical content of the default note. The note
// can be edited freely in a running session, but every persisted snapshot
// carries this exact text, so the about page always survives a reload
// intact.
const DefaultDocument = `
<h1>Welcome to the Desk</h1>

<p>Hi, I'm the person behind this desk. I build small, local-first tools and this
simulated desktop is my portfolio: every window is a working toy application,
and this note is the one document that ships with it.</p>

<p><strong>What I Do:</strong></p>
<p>I design and build web applications end to end, with a soft spot for storage
engines, text tooling, and interfaces that stay out of the way. Most of what I
ship starts as a weekend experiment that refuses to stay small.</p>

<p><strong>Projects & Achievements:</strong></p>
<ul>
  <li>Shipped client projects from single-page sites to full platforms</li>
  <li>Built custom content tooling and editorial pipelines</li>
  <li>Maintains a handful of open-source libraries</li>
  <li>Writes about local-first software and plain-text workflows</li>
</ul>

<p><strong>About This App:</strong></p>
<p>The Notes app you are reading this in keeps everything on your own machine.
Notes are analyzed as you type (word counts, reading time, #hashtags,
categories) and saved automatically. This note cannot be deleted, and edits to
it last only for the current session.</p>

<p><strong>Contact & Social:</strong></p>
<p>The Mail app one dock icon over sends real messages. If you would like to
talk shop, collaborate, or just say hello, write me there.</p>
`
