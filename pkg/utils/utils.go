package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
)

const maxFilenameLength = 180

var unsafeFilenameRE = regexp.MustCompile(`[<>:"/\\|?*]+`)

// Supported audio file extensions
var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".opus": true,
	".wav":  true,
	".aac":  true,
	".ogg":  true,
	".webm": true,
}

// CheckDependencies verifies that the required external binaries exist.
// Each entry maps a tool name to a configured path; an empty path falls
// back to a PATH lookup.
func CheckDependencies(tools map[string]string) error {
	for name, path := range tools {
		if path != "" {
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("configured path for %s does not exist: %s", name, path)
			}
			continue
		}
		if _, err := exec.LookPath(name); err != nil {
			return fmt.Errorf("required command %q not found in PATH", name)
		}
	}
	return nil
}

// SanitizeFilename replaces characters unsafe on common filesystems and
// bounds the length. An empty result falls back to "audio".
func SanitizeFilename(name string) string {
	s := unsafeFilenameRE.ReplaceAllString(strings.TrimSpace(name), "_")
	s = strings.Trim(s, " .")
	if len(s) > maxFilenameLength {
		s = strings.TrimSpace(s[:maxFilenameLength])
	}
	if s == "" {
		return "audio"
	}
	return s
}

// UniquePath returns a collision-free "<base>.mp3" path inside destDir,
// appending " (2)", " (3)", … as needed. The directory is created.
func UniquePath(destDir, baseName string) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	safe := SanitizeFilename(baseName)
	dest := filepath.Join(destDir, safe+".mp3")
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return dest, nil
	}
	for i := 2; ; i++ {
		cand := filepath.Join(destDir, fmt.Sprintf("%s (%d).mp3", safe, i))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand, nil
		}
	}
}

// CreateTempDir creates a temporary working folder for one run.
func CreateTempDir() (string, error) {
	dir, err := os.MkdirTemp("", "ytgrab-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}
	return dir, nil
}

// Cleanup removes the temporary folder.
// Safety check: only deletes directories under the system temp dir.
func Cleanup(dir string) error {
	if dir == "" {
		return nil
	}

	if !strings.HasPrefix(filepath.Clean(dir), filepath.Clean(os.TempDir())) {
		return fmt.Errorf("refusing to delete directory outside temp folder: %s", dir)
	}

	return os.RemoveAll(dir)
}

// FindAudioFiles recursively finds all audio files in a directory.
func FindAudioFiles(dir string) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory path cannot be empty")
	}

	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("directory does not exist: %s", dir)
	}

	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if !info.IsDir() && audioExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", dir, err)
	}

	return files, nil
}

// MoveAudioFiles moves every audio file under srcDir into dstDir. When
// subDirFunc is non-nil it picks a per-file subdirectory (e.g.
// "Artist/Album"); an empty answer places the file in dstDir directly.
func MoveAudioFiles(srcDir, dstDir string, subDirFunc func(string) string) (moved int, failed int, err error) {
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return 0, 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	files, err := FindAudioFiles(srcDir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to find audio files: %w", err)
	}

	for _, file := range files {
		destDir := dstDir
		if subDirFunc != nil {
			if sub := subDirFunc(file); sub != "" {
				destDir = filepath.Join(dstDir, sub)
			}
		}
		dst := filepath.Join(destDir, filepath.Base(file))
		if moveErr := MoveFile(file, dst); moveErr != nil {
			failed++
		} else {
			moved++
		}
	}

	return moved, failed, nil
}

// MoveFile moves a file from src to dst, creating the destination
// directory if needed. Falls back to copy+delete across filesystems.
func MoveFile(src, dst string) error {
	if src == "" || dst == "" {
		return fmt.Errorf("source and destination paths cannot be empty")
	}

	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("source file does not exist: %s", src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	if err := os.Rename(src, dst); err != nil {
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
			return copyAndDelete(src, dst)
		}
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}

	return nil
}

func copyAndDelete(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source %s: %w", src, err)
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source %s: %w", src, err)
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return fmt.Errorf("failed to create destination %s: %w", dst, err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	if err := dstFile.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to close destination %s: %w", dst, err)
	}

	return os.Remove(src)
}
