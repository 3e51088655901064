package content

import (
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
)

// skipDirName marks directories that hold authoring templates, not content.
const skipDirName = "_templates"

// ParseDirectory walks dir, parses every markdown/MDX file, and returns the
// combined chunks. Files that fail to parse are logged and skipped so that
// one bad chapter does not abort a full indexing run.
func ParseDirectory(dir, baseURL string, chunker *Chunker, logger *log.Logger) ([]Chunk, error) {
	if logger == nil {
		logger = log.Default()
	}

	parser := NewParser(baseURL)
	var chunks []Chunk
	files := 0

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == skipDirName {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".mdx" {
			return nil
		}

		parsed, err := parser.ParseFile(path)
		if err != nil {
			logger.Printf("skipping %s: %v", path, err)
			return nil
		}

		fileChunks := chunker.Chunk(parsed)
		logger.Printf("parsed %s: %d sections, %d chunks",
			parsed.Metadata.ChapterID, len(parsed.Sections), len(fileChunks))
		chunks = append(chunks, fileChunks...)
		files++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content directory: %w", err)
	}

	logger.Printf("parsed %d files into %d chunks", files, len(chunks))
	return chunks, nil
}
