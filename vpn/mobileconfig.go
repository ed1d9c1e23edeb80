package vpn

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"howett.net/plist"

	"github.com/yllada/vpn-profile/common"
)

// Marshal encodes p as an XML property list. Dictionary keys are emitted
// in ascending order at every level. The document ends with a newline.
func Marshal(p *Profile) ([]byte, error) {
	data, err := plist.MarshalIndent(p, plist.XMLFormat, "\t")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Write serializes p to dir/vpn.mobileconfig and returns the path.
// The file is written to a temporary name and renamed into place, so an
// existing profile is either fully replaced or left untouched.
func Write(p *Profile, dir string) (string, error) {
	if dir == "" {
		dir = common.DefaultOutputDir
	}
	if !common.DirExists(dir) {
		return "", common.NewError(common.ErrIO, "output directory "+dir, os.ErrNotExist)
	}

	data, err := Marshal(p)
	if err != nil {
		return "", common.NewError(common.ErrIO, "encode profile", err)
	}

	path := filepath.Join(dir, common.ProfileFileName)
	// The pending file lives next to the target so the rename stays on one
	// filesystem.
	if err := renameio.WriteFile(path, data, 0644, renameio.WithTempDir(dir)); err != nil {
		return "", common.NewError(common.ErrIO, path, err)
	}

	common.LogDebug("Wrote %d bytes to %s", len(data), path)
	return path, nil
}

// Read parses a profile written by Write.
func Read(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewError(common.ErrIO, path, err)
	}
	return Unmarshal(data)
}

// Unmarshal decodes an XML property list into a Profile.
func Unmarshal(data []byte) (*Profile, error) {
	var p Profile
	format, err := plist.Unmarshal(data, &p)
	if err != nil {
		return nil, err
	}
	if format != plist.XMLFormat {
		return nil, errors.New("profile is not an XML property list")
	}
	return &p, nil
}
