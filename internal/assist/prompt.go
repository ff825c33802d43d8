package assist

import (
	"fmt"
	"strings"
)

// contextFile pairs a project-relative path with its content for prompt
// assembly. Order is preserved so prompts are deterministic.
type contextFile struct {
	Path    string
	Content string
}

const emptyFileNotice = "[File is empty]"

func appendFileContext(b *strings.Builder, files []contextFile) {
	if len(files) == 0 {
		return
	}
	b.WriteString("--- Relevant Project Files Context ---\n")
	for _, f := range files {
		fmt.Fprintf(b, "\n-- File: %s --\n", f.Path)
		if f.Content == "" {
			b.WriteString(emptyFileNotice)
		} else {
			b.WriteString(f.Content)
		}
		fmt.Fprintf(b, "\n-- End File: %s --\n", f.Path)
	}
	b.WriteString("--- End Relevant Project Files Context ---\n\n")
}

func appendGuidance(b *strings.Builder, taskLines ...string) {
	b.WriteString("--- Task Guidance ---\n")
	for _, line := range taskLines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("Be concise and accurate. If generating code, ensure it is runnable and follows best practices.\n")
	b.WriteString("Output only the raw file content or response, without any extra explanations, introductions, or markdown fences.\n")
	b.WriteString("--- End Task Guidance ---")
}

func buildGeneratePrompt(filename, instructions string, files []contextFile) string {
	var b strings.Builder
	appendFileContext(&b, files)

	b.WriteString("--- Current Request ---\n")
	fmt.Fprintf(&b, "User Instructions: %s\n", instructions)
	fmt.Fprintf(&b, "Target Filename (for generation): %s\n", filename)
	b.WriteString("--- End Current Request ---\n\n")

	appendGuidance(&b,
		fmt.Sprintf("Generate the complete content for the file '%s'.", filename))
	return b.String()
}

func buildModifyPrompt(path, instructions, current string) string {
	var b strings.Builder
	appendFileContext(&b, []contextFile{{Path: path, Content: current}})

	b.WriteString("--- Current Request ---\n")
	fmt.Fprintf(&b, "User Instructions: %s\n", instructions)
	fmt.Fprintf(&b, "Target Filepath (for modification): %s\n", path)
	b.WriteString("--- End Current Request ---\n\n")

	appendGuidance(&b,
		fmt.Sprintf("Generate the new, complete content for the file '%s' after applying the requested modifications.", path),
		"Ensure you provide the *entire* modified file content, not just the changed parts or a diff.")
	return b.String()
}

func buildSyncPrompt(files []contextFile) string {
	var b strings.Builder
	appendFileContext(&b, files)
	appendGuidance(&b,
		"Provide a concise summary of the project based on the provided file context, its purpose, and any potential issues or suggestions.")
	return b.String()
}
