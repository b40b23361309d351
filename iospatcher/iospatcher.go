// Package iospatcher applies the well-known binary patches to a loaded
// IOS title's ES (and, optionally, DIP) module: restoring fakesigning
// acceptance, ES_Identify, direct NAND access, and version downgrading,
// plus an experimental drive-inquiry patch.
package iospatcher

import (
	"bytes"
	"fmt"

	"github.com/ninjacheetah/gowiipkg/title"
	"github.com/ninjacheetah/gowiipkg/werr"
)

var esMagic = []byte{0x45, 0x53, 0x3A}  // "ES:"
var dipMagic = []byte{0x44, 0x49, 0x50, 0x3A} // "DIP:"

// Patcher applies patches to the ES (and DIP) module of a loaded IOS
// title, found automatically by scanning its contents for a known magic.
type Patcher struct {
	Title         *title.Title
	ESModuleIndex int
	DIPModuleIndex int
}

// Load locates the ES module within an IOS title, rejecting titles whose
// title id does not look like an IOS.
func Load(t *title.Title) (*Patcher, error) {
	tid := t.Metadata.TitleID
	if tid[0] != 0x00 || tid[1] != 0x00 || tid[2] != 0x00 || tid[3] != 0x01 {
		return nil, fmt.Errorf("%w: title id does not belong to an IOS", werr.ErrInvalidArgument)
	}
	low := tid[4:8]
	if bytes.Equal(low, []byte{0x00, 0x00, 0x00, 0x01}) || bytes.Equal(low, []byte{0x00, 0x00, 0x00, 0x02}) {
		return nil, fmt.Errorf("%w: title id belongs to the boot2/system menu reserved range, not an IOS", werr.ErrInvalidArgument)
	}

	p := &Patcher{Title: t, ESModuleIndex: -1, DIPModuleIndex: -1}
	for _, rec := range t.Metadata.ContentRecords {
		data, err := t.GetContentByIndex(rec.Index, false)
		if err != nil {
			return nil, fmt.Errorf("reading content %d: %w", rec.Index, err)
		}
		if bytes.Contains(data, esMagic) {
			p.ESModuleIndex = int(rec.Index)
			break
		}
	}
	if p.ESModuleIndex == -1 {
		return nil, fmt.Errorf("%w: could not locate the ES module in this title's contents", werr.ErrNotFound)
	}
	return p, nil
}

func (p *Patcher) esContent() ([]byte, error) {
	return p.Title.GetContentByIndex(uint16(p.ESModuleIndex), false)
}

// patchAt overwrites the bytes at offset off within data with replacement
// and returns the new slice. The backing array is not mutated in place.
func patchAt(data []byte, off int, replacement []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	copy(out[off:], replacement)
	return out
}

// PatchFakesigning restores acceptance of fakesigned tickets and metadata
// (the trucha bug) by zeroing a byte in each of two known instruction
// sequences. Returns how many of the two sequences were found and patched.
func (p *Patcher) PatchFakesigning() (int, error) {
	data, err := p.esContent()
	if err != nil {
		return 0, err
	}
	sequences := [][]byte{
		{0x20, 0x07, 0x23, 0xA2},
		{0x20, 0x07, 0x4B, 0x0B},
	}
	count := 0
	for _, seq := range sequences {
		if off := bytes.Index(data, seq); off != -1 {
			data = patchAt(data, off+1, []byte{0x00})
			count++
		}
	}
	if err := p.Title.SetContent(data, uint16(p.ESModuleIndex), nil, nil); err != nil {
		return 0, err
	}
	return count, nil
}

// PatchESIdentify restores the ability to call ES_Identify, used to
// change a title's permission level.
func (p *Patcher) PatchESIdentify() (int, error) {
	data, err := p.esContent()
	if err != nil {
		return 0, err
	}
	seq := []byte{0x28, 0x03, 0xD1, 0x23}
	count := 0
	if off := bytes.Index(data, seq); off != -1 {
		data = patchAt(data, off+2, []byte{0x00, 0x00})
		count++
	}
	if err := p.Title.SetContent(data, uint16(p.ESModuleIndex), nil, nil); err != nil {
		return 0, err
	}
	return count, nil
}

// PatchNANDAccess restores direct access to /dev/flash.
func (p *Patcher) PatchNANDAccess() (int, error) {
	data, err := p.esContent()
	if err != nil {
		return 0, err
	}
	seq := []byte{0x42, 0x8B, 0xD0, 0x01, 0x25, 0x66}
	count := 0
	if off := bytes.Index(data, seq); off != -1 {
		data = patchAt(data, off+2, []byte{0xE0})
		count++
	}
	if err := p.Title.SetContent(data, uint16(p.ESModuleIndex), nil, nil); err != nil {
		return 0, err
	}
	return count, nil
}

// PatchVersionDowngrading restores the ability to install a title whose
// version is lower than the one currently installed.
func (p *Patcher) PatchVersionDowngrading() (int, error) {
	data, err := p.esContent()
	if err != nil {
		return 0, err
	}
	seq := []byte{0xD2, 0x01, 0x4E, 0x56}
	count := 0
	if off := bytes.Index(data, seq); off != -1 {
		data = patchAt(data, off, []byte{0xE0})
		count++
	}
	if err := p.Title.SetContent(data, uint16(p.ESModuleIndex), nil, nil); err != nil {
		return 0, err
	}
	return count, nil
}

// PatchAll applies the four standard patches and returns how many
// individual patch sequences were found and applied, out of a possible 5.
func (p *Patcher) PatchAll() (int, error) {
	total := 0
	for _, patch := range []func() (int, error){
		p.PatchFakesigning,
		p.PatchESIdentify,
		p.PatchNANDAccess,
		p.PatchVersionDowngrading,
	} {
		n, err := patch()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// PatchDriveInquiry patches out the startup drive inquiry in the DIP
// module, letting IOS boot without a disc drive connected. This patch is
// experimental and must be applied explicitly; it is not part of PatchAll.
func (p *Patcher) PatchDriveInquiry() (int, error) {
	for _, rec := range p.Title.Metadata.ContentRecords {
		data, err := p.Title.GetContentByIndex(rec.Index, false)
		if err != nil {
			return 0, fmt.Errorf("reading content %d: %w", rec.Index, err)
		}
		if bytes.Contains(data, dipMagic) {
			p.DIPModuleIndex = int(rec.Index)
			break
		}
	}
	if p.DIPModuleIndex == -1 {
		return 0, fmt.Errorf("%w: could not locate the DIP module in this title's contents", werr.ErrNotFound)
	}

	data, err := p.Title.GetContentByIndex(uint16(p.DIPModuleIndex), false)
	if err != nil {
		return 0, err
	}
	seq := []byte{0x49, 0x4C, 0x23, 0x90, 0x68, 0x0A}
	count := 0
	if off := bytes.Index(data, seq); off != -1 {
		data = patchAt(data, off, []byte{0x20, 0x00, 0xE5, 0x38})
		count++
	}
	if err := p.Title.SetContent(data, uint16(p.DIPModuleIndex), nil, nil); err != nil {
		return 0, err
	}
	return count, nil
}
