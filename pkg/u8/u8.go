// Package u8 implements the U8 hierarchical archive format (component
// 4.8), used to store a title's files (banners, icons, channel content)
// inside a content blob.
package u8

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ninjacheetah/gowiipkg/werr"
)

var magic = [4]byte{0x55, 0xAA, 0x38, 0x2D}

const nodeSize = 12

// NodeType distinguishes a file entry from a directory entry.
type NodeType uint8

const (
	NodeFile NodeType = 0
	NodeDir  NodeType = 1
)

// Node is one entry of the archive's node table. For a file node,
// DataOffset/Size give its absolute byte range within the archive; for a
// directory node, DataOffset is the node index of its parent (the root's
// parent is itself, 0) and Size is the index of the first node outside
// this subtree (the root's Size is the total node count).
type Node struct {
	Type       NodeType
	Name       string
	DataOffset uint32
	Size       uint32
	Data       []byte // only populated for file nodes

	nameOffset uint32 // only meaningful while parsing, before names are resolved
}

// Archive is a parsed or in-progress-built U8 tree: a flat, depth-first
// ordered node table plus each file's content.
type Archive struct {
	Nodes []Node
}

// findMagic locates the offset of the U8 magic within data, accounting
// for an optional 0x600-byte banner header that precedes it. Banner
// detection checks for a secondary "IMET" magic at offset 0x40 or 0x80,
// matching both positions used across the extant banner revisions.
func findMagic(data []byte) (int, error) {
	if len(data) >= 4 && bytes.Equal(data[0:4], magic[:]) {
		return 0, nil
	}
	tryIMET := func(imetOff, u8Off int) (int, bool) {
		if len(data) >= imetOff+4 && string(data[imetOff:imetOff+4]) == "IMET" &&
			len(data) >= u8Off+4 && bytes.Equal(data[u8Off:u8Off+4], magic[:]) {
			return u8Off, true
		}
		return 0, false
	}
	if off, ok := tryIMET(0x40, 0x600); ok {
		return off, nil
	}
	if off, ok := tryIMET(0x80, 0x640); ok {
		return off, nil
	}
	return 0, fmt.Errorf("%w: no U8 magic found", werr.ErrInvalidMagic)
}

// Load parses a U8 archive from its raw representation.
func Load(data []byte) (*Archive, error) {
	base, err := findMagic(data)
	if err != nil {
		return nil, err
	}
	if len(data) < base+32 {
		return nil, fmt.Errorf("%w: archive shorter than its header", werr.ErrMalformedStructure)
	}
	rootNodeOffset := be32(data[base+4 : base+8])
	root := int(rootNodeOffset)
	if len(data) < root+nodeSize {
		return nil, fmt.Errorf("%w: archive truncated before root node", werr.ErrMalformedStructure)
	}
	rootSize := be32(data[root+8 : root+12])
	numNodes := int(rootSize)
	if numNodes < 1 {
		return nil, fmt.Errorf("%w: root node reports %d nodes", werr.ErrMalformedStructure, numNodes)
	}
	if len(data) < root+numNodes*nodeSize {
		return nil, fmt.Errorf("%w: archive truncated in node table", werr.ErrMalformedStructure)
	}
	nodes := make([]Node, numNodes)
	for i := 0; i < numNodes; i++ {
		off := root + i*nodeSize
		typeAndNameOff := be32(data[off : off+4])
		nodes[i] = Node{
			Type:       NodeType(typeAndNameOff >> 24),
			DataOffset: be32(data[off+4 : off+8]),
			Size:       be32(data[off+8 : off+12]),
		}
		nodes[i].nameOffset = typeAndNameOff & 0x00FFFFFF
	}
	nameBase := root + numNodes*nodeSize
	for i := range nodes {
		start := nameBase + int(nodes[i].nameOffset)
		if start >= len(data) {
			return nil, fmt.Errorf("%w: name offset out of range for node %d", werr.ErrMalformedStructure, i)
		}
		end := start
		for end < len(data) && data[end] != 0 {
			end++
		}
		nodes[i].Name = string(data[start:end])
		if nodes[i].Type == NodeFile {
			fileEnd := int(nodes[i].DataOffset) + int(nodes[i].Size)
			if fileEnd > len(data) {
				return nil, fmt.Errorf("%w: file node %q extends past end of archive", werr.ErrMalformedStructure, nodes[i].Name)
			}
			nodes[i].Data = append([]byte(nil), data[nodes[i].DataOffset:fileEnd]...)
		}
	}
	return &Archive{Nodes: nodes}, nil
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func alignUp(n, to int) int {
	if n%to == 0 {
		return n
	}
	return n + (to - n%to)
}

// Dump serializes the archive back to its on-disk representation. File
// data offsets are recomputed in node order, each aligned up to 32 bytes,
// starting at align(header bytes + 32, 64).
func (a *Archive) Dump() ([]byte, error) {
	headerSize := len(a.Nodes) * nodeSize
	for _, n := range a.Nodes {
		headerSize += len(n.Name) + 1
	}
	dataOffset := alignUp(headerSize+32, 64)

	names := make([]byte, 0, headerSize)
	nameOffsets := make([]uint32, len(a.Nodes))
	for i, n := range a.Nodes {
		nameOffsets[i] = uint32(len(names))
		names = append(names, n.Name...)
		names = append(names, 0)
	}

	dataOffsets := make([]uint32, len(a.Nodes))
	cur := dataOffset
	for i, n := range a.Nodes {
		if n.Type == NodeFile {
			cur = alignUp(cur, 32)
			dataOffsets[i] = uint32(cur)
			cur += alignUp(len(n.Data), 32)
		}
	}

	var buf bytes.Buffer
	buf.Write(magic[:])
	writeBE32(&buf, 0x20)
	writeBE32(&buf, uint32(headerSize))
	writeBE32(&buf, uint32(dataOffset))
	buf.Write(make([]byte, 16))
	for i, n := range a.Nodes {
		typeAndName := uint32(n.Type)<<24 | (nameOffsets[i] & 0x00FFFFFF)
		writeBE32(&buf, typeAndName)
		if n.Type == NodeFile {
			writeBE32(&buf, dataOffsets[i])
		} else {
			writeBE32(&buf, n.DataOffset)
		}
		writeBE32(&buf, n.Size)
	}
	buf.Write(names)
	if pad := buf.Len() % 64; pad != 0 {
		buf.Write(make([]byte, 64-pad))
	}
	for _, n := range a.Nodes {
		if n.Type != NodeFile {
			continue
		}
		buf.Write(n.Data)
		if pad := len(n.Data) % 32; pad != 0 {
			buf.Write(make([]byte, 32-pad))
		}
	}
	return buf.Bytes(), nil
}

func writeBE32(buf *bytes.Buffer, v uint32) {
	buf.WriteByte(byte(v >> 24))
	buf.WriteByte(byte(v >> 16))
	buf.WriteByte(byte(v >> 8))
	buf.WriteByte(byte(v))
}

// Extract walks the archive and invokes write for every file node with
// its full path (directory-separated with "/") relative to the archive
// root, and its content.
func (a *Archive) Extract(write func(path string, data []byte) error) error {
	if len(a.Nodes) == 0 {
		return nil
	}
	type frame struct {
		index int
		path  string
	}
	stack := []frame{{index: 0, path: ""}}
	for i := 1; i < len(a.Nodes); i++ {
		n := a.Nodes[i]
		for len(stack) > 1 && i >= int(a.Nodes[stack[len(stack)-1].index].Size) {
			stack = stack[:len(stack)-1]
		}
		for len(stack) > 1 && int(n.DataOffset) != stack[len(stack)-1].index && n.Type == NodeDir {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		full := n.Name
		if parent.path != "" {
			full = path.Join(parent.path, n.Name)
		}
		switch n.Type {
		case NodeDir:
			stack = append(stack, frame{index: i, path: full})
		case NodeFile:
			if err := write(full, n.Data); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: node %q has invalid type %d", werr.ErrMalformedStructure, n.Name, n.Type)
		}
	}
	return nil
}

// FileEntry is one file to be packed into a new archive by Build.
type FileEntry struct {
	// Path is the file's full path relative to the archive root, using
	// "/" as a separator.
	Path string
	Data []byte
}

// Build constructs a new archive from a flat list of files, creating
// directory nodes implicitly for any intermediate path components.
// Entries at each directory level are ordered files-before-subdirectories,
// each group sorted by lowercase name, matching the canonical on-disk
// node order.
func Build(files []FileEntry) (*Archive, error) {
	root := &buildDir{}
	for _, f := range files {
		parts := strings.Split(path.Clean(f.Path), "/")
		if len(parts) == 0 || parts[0] == "" || parts[0] == "." {
			return nil, fmt.Errorf("%w: invalid file path %q", werr.ErrInvalidArgument, f.Path)
		}
		dir := root
		for _, seg := range parts[:len(parts)-1] {
			dir = dir.child(seg)
		}
		dir.files = append(dir.files, FileEntry{Path: parts[len(parts)-1], Data: f.Data})
	}

	a := &Archive{Nodes: []Node{{Type: NodeDir, Name: "", DataOffset: 0}}}
	root.emit(a, 0)
	a.Nodes[0].Size = uint32(len(a.Nodes))
	return a, nil
}

type buildDir struct {
	name string
	dirs []*buildDir
	files []FileEntry
}

func (d *buildDir) child(name string) *buildDir {
	for _, c := range d.dirs {
		if c.name == name {
			return c
		}
	}
	c := &buildDir{name: name}
	d.dirs = append(d.dirs, c)
	return c
}

func (d *buildDir) emit(a *Archive, parentIndex int) {
	sort.Slice(d.files, func(i, j int) bool { return strings.ToLower(d.files[i].Path) < strings.ToLower(d.files[j].Path) })
	sort.Slice(d.dirs, func(i, j int) bool { return strings.ToLower(d.dirs[i].name) < strings.ToLower(d.dirs[j].name) })
	for _, f := range d.files {
		a.Nodes = append(a.Nodes, Node{
			Type:       NodeFile,
			Name:       f.Path,
			DataOffset: uint32(len(f.Data)), // placeholder, overwritten by Dump
			Size:       uint32(len(f.Data)),
			Data:       f.Data,
		})
	}
	for _, sub := range d.dirs {
		idx := len(a.Nodes)
		a.Nodes = append(a.Nodes, Node{Type: NodeDir, Name: sub.name, DataOffset: uint32(parentIndex)})
		sub.emit(a, idx)
		a.Nodes[idx].Size = uint32(len(a.Nodes))
	}
}
