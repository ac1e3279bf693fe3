package ingest

import "tutor-rag/internal/models"

// SampleCurriculum returns built-in curriculum content so a fresh
// install can answer questions before any files are ingested.
func SampleCurriculum() []models.Document {
	return []models.Document{
		{
			ID: "sample-algebra",
			RawText: `Mathematics - Algebra Basics

Algebra is a branch of mathematics that uses symbols and letters to represent numbers and quantities in formulas and equations.

Key concepts:
1. Variables: letters like x, y, z that represent unknown values
2. Constants: fixed numbers like 5, -3, 0.5
3. Expressions: combinations of variables and constants like 2x + 3
4. Equations: mathematical statements that show equality like 2x + 3 = 7

Solving linear equations:
- Isolate the variable on one side
- Use inverse operations
- Check your solution by substituting back

Example: solve 2x + 3 = 7.
Step 1: subtract 3 from both sides: 2x = 4.
Step 2: divide both sides by 2: x = 2.
Step 3: check: 2(2) + 3 = 4 + 3 = 7.`,
			SourceMeta: models.SourceMeta{Title: "Algebra Basics", Subject: "mathematics", Path: "builtin"},
		},
		{
			ID: "sample-physics",
			RawText: `Science - Introduction to Physics

Physics is the study of matter, energy, and their interactions in the universe.

Fundamental concepts:
1. Motion: how objects move through space and time
2. Force: a push or pull that can change an object's motion
3. Energy: the ability to do work or cause change
4. Matter: anything that has mass and takes up space

Newton's laws describe force and motion:
1. First law (inertia): an object at rest stays at rest, and an object in motion stays in motion, unless acted upon by an external force.
2. Second law: force equals mass times acceleration (F = ma).
3. Third law: for every action, there is an equal and opposite reaction.

Applications:
- Understanding how cars brake and accelerate
- Explaining why we wear seatbelts
- Rocket propulsion and space travel`,
			SourceMeta: models.SourceMeta{Title: "Introduction to Physics", Subject: "science", Path: "builtin"},
		},
		{
			ID: "sample-reading",
			RawText: `English Literature - Reading Comprehension Strategies

Reading comprehension is the ability to understand, analyze, and interpret written text.

Key strategies:
1. Preview: look at titles, headings, and images before reading
2. Predict: make educated guesses about what will happen
3. Question: ask yourself questions while reading
4. Summarize: identify main ideas and key details
5. Connect: relate the text to your own experiences

Types of questions:
- Literal: information directly stated in the text
- Inferential: reading between the lines
- Critical: evaluating and analyzing the author's purpose

Active reading techniques:
- Highlight or underline important information
- Take notes in the margins
- Pause periodically to reflect on what you've learned`,
			SourceMeta: models.SourceMeta{Title: "Reading Comprehension Strategies", Subject: "english", Path: "builtin"},
		},
	}
}
