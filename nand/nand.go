// Package nand implements an emulated NAND installer (§6): materializing
// the console filesystem layout on a host directory and installing or
// uninstalling titles into it.
package nand

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ninjacheetah/gowiipkg/content"
	"github.com/ninjacheetah/gowiipkg/tmd"
	"github.com/ninjacheetah/gowiipkg/werr"
	wtitle "github.com/ninjacheetah/gowiipkg/title"
)

var layoutDirs = []string{"import", "meta", "shared1", "shared2", "sys", "ticket", "title", "tmp", "wfs"}

// systemMenuUID is the well-known uid seeded into sys/uid.sys for the
// system menu title the first time it is created.
const systemMenuUID = 0x1000

var systemMenuTitleID = [8]byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02}

// NAND is a handle to an emulated NAND rooted at a host directory.
type NAND struct {
	Root   string
	Logger zerolog.Logger
}

// New materializes the standard directory layout under root, creating any
// directories that do not already exist.
func New(root string) (*NAND, error) {
	for _, d := range layoutDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating %s: %v", werr.ErrIO, d, err)
		}
	}
	return &NAND{Root: root, Logger: zerolog.Nop()}, nil
}

func titlePaths(titleID [8]byte) (high, low string) {
	return fmt.Sprintf("%08x", titleID[:4]), fmt.Sprintf("%08x", titleID[4:])
}

func hexID(id [8]byte) string {
	return fmt.Sprintf("%x", id[:])
}

// Install writes a title's ticket, metadata, and content into the NAND
// tree, updates the shared-content map and uid.sys, and initializes
// sys/cert.sys if this is the first title installed.
func (n *NAND) Install(t *wtitle.Title) error {
	high, low := titlePaths(t.Metadata.TitleID)
	titleDir := filepath.Join(n.Root, "title", high, low)
	contentDir := filepath.Join(titleDir, "content")
	dataDir := filepath.Join(titleDir, "data")
	for _, d := range []string{contentDir, dataDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", werr.ErrIO, d, err)
		}
	}

	tikBytes, err := t.Ticket.Dump()
	if err != nil {
		return fmt.Errorf("dumping ticket: %w", err)
	}
	tikDir := filepath.Join(n.Root, "ticket", high)
	if err := os.MkdirAll(tikDir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", werr.ErrIO, tikDir, err)
	}
	if err := writeFile(filepath.Join(tikDir, low+".tik"), tikBytes); err != nil {
		return err
	}

	metaBytes, err := t.Metadata.Dump()
	if err != nil {
		return fmt.Errorf("dumping metadata: %w", err)
	}
	if err := writeFile(filepath.Join(contentDir, "title.tmd"), metaBytes); err != nil {
		return err
	}

	key, err := t.TitleKey()
	if err != nil {
		return fmt.Errorf("unwrapping title key: %w", err)
	}

	sharedMapPath := filepath.Join(n.Root, "shared1", "content.map")
	sharedMap, err := loadOrNewSharedMap(sharedMapPath)
	if err != nil {
		return err
	}
	sharedChanged := false

	for _, entry := range t.Content.Entries {
		switch entry.Record.Type {
		case tmd.ContentNormal:
			dec, err := t.Content.GetByIndex(entry.Record.Index, key, false)
			if err != nil {
				return fmt.Errorf("decrypting content %d: %w", entry.Record.Index, err)
			}
			name := fmt.Sprintf("%08x.app", entry.Record.ContentID)
			if err := writeFile(filepath.Join(contentDir, name), dec); err != nil {
				return err
			}
		case tmd.ContentShared:
			dec, err := t.Content.GetByIndex(entry.Record.Index, key, false)
			if err != nil {
				return fmt.Errorf("decrypting shared content %d: %w", entry.Record.Index, err)
			}
			if !sharedMapHasHash(sharedMap, entry.Record.Hash) {
				id := sharedMap.AddContent(entry.Record.Hash)
				if err := writeFile(filepath.Join(n.Root, "shared1", id+".app"), dec); err != nil {
					return err
				}
				sharedChanged = true
			}
		}
	}
	if sharedChanged {
		if err := writeFile(sharedMapPath, sharedMap.Dump()); err != nil {
			return err
		}
	}

	if err := n.appendUID(t.Metadata.TitleID); err != nil {
		return err
	}
	if err := n.initCertSys(t); err != nil {
		return err
	}

	n.Logger.Info().Str("title_id", hexID(t.Metadata.TitleID)).Msg("title installed")
	return nil
}

// Uninstall removes a title's content directory and ticket, and its data/
// directory only if it is empty. Shared content and shared1/content.map
// are kept unconditionally, since they may be referenced by other
// installed titles. The title's sys/uid.sys entry and sys/cert.sys are
// not modified.
func (n *NAND) Uninstall(titleID [8]byte) error {
	high, low := titlePaths(titleID)
	titleDir := filepath.Join(n.Root, "title", high, low)
	contentDir := filepath.Join(titleDir, "content")
	dataDir := filepath.Join(titleDir, "data")

	if err := os.RemoveAll(contentDir); err != nil {
		return fmt.Errorf("%w: removing %s: %v", werr.ErrIO, contentDir, err)
	}
	if empty, err := dirIsEmpty(dataDir); err == nil && empty {
		os.Remove(dataDir)
	}
	os.Remove(titleDir)
	os.Remove(filepath.Join(n.Root, "title", high))

	tikPath := filepath.Join(n.Root, "ticket", high, low+".tik")
	if err := os.Remove(tikPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: removing %s: %v", werr.ErrIO, tikPath, err)
	}

	n.Logger.Info().Str("title_id", hexID(titleID)).Msg("title uninstalled")
	return nil
}

func dirIsEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", werr.ErrIO, path, err)
	}
	return nil
}

func loadOrNewSharedMap(path string) (*content.SharedMap, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &content.SharedMap{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", werr.ErrIO, path, err)
	}
	return content.LoadSharedMap(data)
}

func sharedMapHasHash(m *content.SharedMap, hash [20]byte) bool {
	for _, rec := range m.Records {
		if rec.Hash == hash {
			return true
		}
	}
	return false
}

const uidEntrySize = 12

// appendUID creates sys/uid.sys with the system menu's well-known entry
// if it does not exist, then appends an entry for titleID if one is not
// already present.
func (n *NAND) appendUID(titleID [8]byte) error {
	path := filepath.Join(n.Root, "sys", "uid.sys")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		data = nil
	} else if err != nil {
		return fmt.Errorf("%w: reading %s: %v", werr.ErrIO, path, err)
	}
	if len(data) == 0 {
		entry := make([]byte, uidEntrySize)
		copy(entry[0:8], systemMenuTitleID[:])
		binary.BigEndian.PutUint16(entry[10:12], systemMenuUID)
		data = entry
	}
	for off := 0; off+uidEntrySize <= len(data); off += uidEntrySize {
		if [8]byte(data[off:off+8]) == titleID {
			return writeFile(path, data)
		}
	}
	nextUID := uint16(len(data)/uidEntrySize) + systemMenuUID
	entry := make([]byte, uidEntrySize)
	copy(entry[0:8], titleID[:])
	binary.BigEndian.PutUint16(entry[10:12], nextUID)
	data = append(data, entry...)
	return writeFile(path, data)
}

// initCertSys seeds sys/cert.sys from the title's certificate chain the
// first time any title is installed.
func (n *NAND) initCertSys(t *wtitle.Title) error {
	path := filepath.Join(n.Root, "sys", "cert.sys")
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: statting %s: %v", werr.ErrIO, path, err)
	}
	certBytes, err := t.Certs.Dump()
	if err != nil {
		return fmt.Errorf("dumping certificate chain: %w", err)
	}
	return writeFile(path, certBytes)
}
