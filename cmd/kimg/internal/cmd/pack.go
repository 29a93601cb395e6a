package cmd

import (
	"bytes"
	"crypto/sha256"
	"debug/elf"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/lightap/Microkernel-OS-sub001/cmd/kimg/internal/manifest"
)

var packCmd = &cobra.Command{
	Use:   "pack <manifest.yaml> <out.img>",
	Short: "Validate a boot manifest's servers and concatenate them into a boot image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return pack(args[0], args[1])
	},
}

// cacheDir is where decoded manifest-entry metadata is memoized between
// runs, keyed by a sha256 digest of the entry's file contents (not its
// path) so a modified ELF invalidates its own cache entry.
func cacheDir() string {
	return filepath.Join(xdg.CacheHome, "kimg", "manifests")
}

// recordHeader is one entry's framing in the packed image: a fixed-size
// name field and the byte length of the ELF payload that follows it. The
// boot loader glue that reads this image back (outside this module's
// scope) walks records by repeatedly reading a header then skipping Size
// bytes.
type recordHeader struct {
	Name     [48]byte
	Priority uint8
	_        [3]byte
	Quantum  uint32
	Flags    uint8
	_        [3]byte
	Size     uint32
}

const (
	flagMapVGA      = 1 << 0
	flagIOPrivilege = 1 << 1
)

func pack(manifestPath, outPath string) error {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(cacheDir(), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	for _, entry := range m.Servers {
		payload, err := os.ReadFile(entry.Path)
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Path, err)
		}

		if err := memoizeValidation(entry, payload); err != nil {
			return err
		}

		var hdr recordHeader
		if len(entry.Name) >= len(hdr.Name) {
			return fmt.Errorf("server name %q too long for packed image", entry.Name)
		}
		copy(hdr.Name[:], entry.Name)
		hdr.Priority = entry.Priority
		hdr.Quantum = entry.Quantum
		if entry.MapVGA {
			hdr.Flags |= flagMapVGA
		}
		if entry.IOPrivilege {
			hdr.Flags |= flagIOPrivilege
		}
		hdr.Size = uint32(len(payload))

		if err := binary.Write(out, binary.LittleEndian, hdr); err != nil {
			return fmt.Errorf("write header for %s: %w", entry.Name, err)
		}
		if _, err := out.Write(payload); err != nil {
			return fmt.Errorf("write payload for %s: %w", entry.Name, err)
		}
	}

	fmt.Printf("%s: packed %d server(s) into %s\n", manifestPath, len(m.Servers), outPath)
	return nil
}

// decodedEntry is the memoized shape cached under cacheDir: just enough to
// skip re-parsing an unchanged ELF file on the next pack invocation.
type decodedEntry struct {
	Entry  uint64 `json:"entry"`
	Phnum  int    `json:"phnum"`
	Digest string `json:"digest"`
}

func memoizeValidation(entry manifest.Entry, payload []byte) error {
	digest := sha256.Sum256(payload)
	digestHex := hex.EncodeToString(digest[:])

	cachePath := filepath.Join(cacheDir(), digestHex+".json")
	if _, err := os.Stat(cachePath); err == nil {
		return nil
	}

	f, err := elf.NewFile(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("decode %s: %w", entry.Path, err)
	}
	defer f.Close()

	cached := decodedEntry{
		Entry:  f.Entry,
		Phnum:  len(f.Progs),
		Digest: digestHex,
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal cache entry for %s: %w", entry.Path, err)
	}
	return os.WriteFile(cachePath, raw, 0o644)
}
