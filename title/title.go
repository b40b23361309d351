// Package title ties together a certificate chain, ticket, metadata, and
// content region into the single object an installer or editor actually
// works with (component 4.7), mirroring how those four pieces are bundled
// inside one package on disk.
package title

import (
	"fmt"

	"github.com/ninjacheetah/gowiipkg/cert"
	"github.com/ninjacheetah/gowiipkg/content"
	"github.com/ninjacheetah/gowiipkg/tmd"
	"github.com/ninjacheetah/gowiipkg/wadpkg"
	"github.com/ninjacheetah/gowiipkg/werr"
	"github.com/ninjacheetah/gowiipkg/wiicrypto"

	"github.com/ninjacheetah/gowiipkg/ticket"
)

// bootTitleID is the title id that forces a package's type byte to the
// boot-chain variant rather than the normal one.
var bootTitleID = [8]byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01}

// Title is a fully parsed package: its certificate chain, ticket,
// metadata, and content region, kept consistent with each other.
type Title struct {
	Certs    *cert.Chain
	Ticket   *ticket.Ticket
	Metadata *tmd.Metadata
	Content  *content.Region
}

// LoadPackage parses a package and cross-checks that its ticket and
// metadata agree on the title id.
func LoadPackage(data []byte) (*Title, error) {
	pkg, err := wadpkg.Load(data)
	if err != nil {
		return nil, err
	}
	certs, err := cert.LoadChain(pkg.CertChain)
	if err != nil {
		return nil, fmt.Errorf("loading certificate chain: %w", err)
	}
	tik, err := ticket.Load(pkg.Ticket)
	if err != nil {
		return nil, fmt.Errorf("loading ticket: %w", err)
	}
	meta, err := tmd.Load(pkg.Metadata)
	if err != nil {
		return nil, fmt.Errorf("loading metadata: %w", err)
	}
	if tik.TitleID != meta.TitleID {
		return nil, fmt.Errorf("%w: ticket title id does not match metadata title id", werr.ErrMalformedStructure)
	}
	region, err := content.Load(pkg.Content, meta.ContentRecords)
	if err != nil {
		return nil, fmt.Errorf("loading content region: %w", err)
	}
	return &Title{Certs: certs, Ticket: tik, Metadata: meta, Content: region}, nil
}

// DumpPackage reassembles a package from the title's current state,
// resyncing the metadata's content records from the content region first
// and selecting the boot-chain package type when the title id is the
// boot title.
func (t *Title) DumpPackage() ([]byte, error) {
	t.Metadata.ContentRecords = t.Content.Records()

	certChain, err := t.Certs.Dump()
	if err != nil {
		return nil, fmt.Errorf("dumping certificate chain: %w", err)
	}
	tikData, err := t.Ticket.Dump()
	if err != nil {
		return nil, fmt.Errorf("dumping ticket: %w", err)
	}
	metaData, err := t.Metadata.Dump()
	if err != nil {
		return nil, fmt.Errorf("dumping metadata: %w", err)
	}
	contentData, _, err := t.Content.Dump()
	if err != nil {
		return nil, fmt.Errorf("dumping content region: %w", err)
	}

	pkgType := wadpkg.TypeNormal
	if t.Metadata.TitleID == bootTitleID {
		pkgType = wadpkg.TypeBoot
	}
	pkg := &wadpkg.Package{
		Type:      pkgType,
		CertChain: certChain,
		Ticket:    tikData,
		Metadata:  metaData,
		Content:   contentData,
	}
	return pkg.Dump()
}

// SetTitleID sets the title id on both the metadata and the ticket, and
// re-wraps the ticket's title key under the new id since the wrapping IV
// is derived from it.
func (t *Title) SetTitleID(id [8]byte) error {
	key, err := t.Ticket.TitleKey()
	if err != nil {
		return fmt.Errorf("unwrapping title key before id change: %w", err)
	}
	wrapped, err := wiicrypto.WrapTitleKey(key, t.Ticket.CommonKeyIndex, id, t.Ticket.IsDev())
	if err != nil {
		return fmt.Errorf("rewrapping title key under new id: %w", err)
	}
	t.Metadata.SetTitleID(id)
	t.Ticket.SetTitleID(id)
	t.Ticket.TitleKeyEnc = wrapped
	return nil
}

// SetTitleVersionInt sets the decimal title version on both the metadata
// and the ticket.
func (t *Title) SetTitleVersionInt(v int) error {
	if err := t.Metadata.SetTitleVersionInt(v); err != nil {
		return err
	}
	return t.Ticket.SetTitleVersionInt(v)
}

// SetTitleVersionString sets the title version on both the metadata and
// the ticket from a human-readable version string.
func (t *Title) SetTitleVersionString(v string) error {
	if err := t.Metadata.SetTitleVersionString(v); err != nil {
		return err
	}
	dec := t.Metadata.TitleVersion
	return t.Ticket.SetTitleVersionInt(int(dec))
}

// TitleKey returns the title's decrypted title key.
func (t *Title) TitleKey() ([16]byte, error) {
	return t.Ticket.TitleKey()
}

// GetContentByIndex returns the decrypted content at the given content
// record index, using the title's own title key.
func (t *Title) GetContentByIndex(index uint16, skipHash bool) ([]byte, error) {
	key, err := t.TitleKey()
	if err != nil {
		return nil, err
	}
	return t.Content.GetByIndex(index, key, skipHash)
}

// GetContentByCid returns the decrypted content with the given content
// id, using the title's own title key.
func (t *Title) GetContentByCid(cid uint32, skipHash bool) ([]byte, error) {
	key, err := t.TitleKey()
	if err != nil {
		return nil, err
	}
	return t.Content.GetByCid(cid, key, skipHash)
}

// AddContent encrypts dec under the title's own title key and appends it
// to the content region, then resyncs the metadata's content records.
func (t *Title) AddContent(dec []byte, cid uint32, index uint16, ctype tmd.ContentType) error {
	key, err := t.TitleKey()
	if err != nil {
		return err
	}
	if err := t.Content.AddContent(dec, cid, index, ctype, key); err != nil {
		return err
	}
	t.Metadata.ContentRecords = t.Content.Records()
	return nil
}

// SetContent encrypts dec under the title's own title key and replaces
// the content at the given content index, then resyncs the metadata's
// content records.
func (t *Title) SetContent(dec []byte, index uint16, cid *uint32, ctype *tmd.ContentType) error {
	key, err := t.TitleKey()
	if err != nil {
		return err
	}
	if err := t.Content.SetContent(dec, index, key, cid, ctype); err != nil {
		return err
	}
	t.Metadata.ContentRecords = t.Content.Records()
	return nil
}

// LoadContent encrypts dec under the title's own title key and loads it
// at the given content index, after verifying it against the existing
// record's hash.
func (t *Title) LoadContent(dec []byte, index uint16) error {
	key, err := t.TitleKey()
	if err != nil {
		return err
	}
	return t.Content.LoadContent(dec, index, key)
}

// installBlockSize is the unit InstalledSizeBlocks rounds up to: the size
// of one cluster on the filesystem backing an installed title.
const installBlockSize = 131072

// InstalledSize returns the space a title occupies once installed: its
// serialized metadata and ticket, plus its content, optionally excluding
// shared content (type ContentShared), which is stored once per console
// rather than once per title.
func (t *Title) InstalledSize(includeShared bool) uint64 {
	var total uint64
	for _, e := range t.Content.Entries {
		if !includeShared && e.Record.Type == tmd.ContentShared {
			continue
		}
		total += e.Record.Size
	}
	if metaData, err := t.Metadata.Dump(); err == nil {
		total += uint64(len(metaData))
	}
	if tikData, err := t.Ticket.Dump(); err == nil {
		total += uint64(len(tikData))
	}
	return total
}

// InstalledSizeBlocks returns InstalledSize rounded up to whole blocks.
func (t *Title) InstalledSizeBlocks(includeShared bool) uint64 {
	size := t.InstalledSize(includeShared)
	if size%installBlockSize == 0 {
		return size / installBlockSize
	}
	return size/installBlockSize + 1
}

// Fakesign fakesigns both the metadata and the ticket.
func (t *Title) Fakesign() error {
	if err := t.Metadata.Fakesign(); err != nil {
		return err
	}
	return t.Ticket.Fakesign()
}

// IsFakesigned reports whether both the metadata and the ticket are
// currently fakesigned.
func (t *Title) IsFakesigned() bool {
	return t.Metadata.IsFakesigned() && t.Ticket.IsFakesigned()
}
