// Package unity stages the Unity test framework into the build tree. A
// local reference checkout wins when it holds any C source; otherwise the
// upstream archive is downloaded and only its src tree is extracted. Either
// way the build descriptor finds the framework at <build>/unity/src.
package unity

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// DirName is the framework directory inside the build tree.
	DirName = "unity"

	zipRoot      = "Unity-master/"
	zipSrcPrefix = "Unity-master/src/"
)

// Source reports how the framework was staged.
type Source int

const (
	SourceNone Source = iota
	SourceLocal
	SourceDownload
)

// Stage makes <buildDir>/unity available. When refDir contains any .c file
// the destination is replaced with a recursive copy of it; otherwise the
// archive at url is fetched and its src members extracted. Callers treat
// any returned error as a warning, not a failure: the build step will
// surface the real consequence if the framework is truly absent.
func Stage(ctx context.Context, refDir, url, buildDir string) (Source, error) {
	dest := filepath.Join(buildDir, DirName)

	if hasCSources(refDir) {
		if err := replaceTree(refDir, dest); err != nil {
			return SourceNone, fmt.Errorf("copying framework from %s: %w", refDir, err)
		}
		return SourceLocal, nil
	}

	if err := fetch(ctx, url, dest); err != nil {
		return SourceNone, err
	}
	return SourceDownload, nil
}

// hasCSources reports whether dir holds at least one C file, at any depth.
func hasCSources(dir string) bool {
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.c")
	return err == nil && len(matches) > 0
}

// replaceTree clears dst and copies the regular files of src into it,
// preserving structure.
func replaceTree(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("clearing %s: %w", dst, err)
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}

// fetch downloads the framework archive and extracts its src tree into dest.
func fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building framework download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading framework: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading framework: unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "unity-*.zip")
	if err != nil {
		return fmt.Errorf("creating temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("saving framework archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("saving framework archive: %w", err)
	}
	return extractSrc(tmp.Name(), dest)
}

// extractSrc writes the archive's Unity-master/src members under dest,
// dropping the archive root so the result is <dest>/src/....
func extractSrc(zipPath, dest string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("opening framework archive: %w", err)
	}
	defer zr.Close()

	found := false
	for _, member := range zr.File {
		if !strings.HasPrefix(member.Name, zipSrcPrefix) || member.FileInfo().IsDir() {
			continue
		}
		rel := strings.TrimPrefix(member.Name, zipRoot)
		if !filepath.IsLocal(filepath.FromSlash(rel)) {
			return fmt.Errorf("archive member escapes destination: %s", member.Name)
		}
		target := filepath.Join(dest, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
		}
		if err := writeMember(member, target); err != nil {
			return err
		}
		found = true
	}
	if !found {
		return fmt.Errorf("framework archive has no %s members", zipSrcPrefix)
	}
	return nil
}

func writeMember(member *zip.File, target string) error {
	rc, err := member.Open()
	if err != nil {
		return fmt.Errorf("opening archive member %s: %w", member.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extracting %s: %w", member.Name, err)
	}
	return out.Close()
}
