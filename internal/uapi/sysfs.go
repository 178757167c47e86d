package uapi

import (
	"bufio"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// ReadFirstLine reads up to the first newline of a file and returns it with
// the trailing newline stripped, ported from zbd.c's read_file. Returns ""
// if the file can't be opened or is empty, matching read_file's NULL return.
func ReadFirstLine(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimRight(scanner.Text(), "\n")
}

// GetZonedModel stats the given path to find its underlying device number,
// then reads /sys/dev/block/<major>:<minor>/queue/zoned to classify it,
// ported from zbd.c's get_zbd_model.
func GetZonedModel(path string) (int, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return ZBD_DM_NONE, err
	}

	major := unix.Major(st.Rdev)
	minor := unix.Minor(st.Rdev)
	modelStr := ReadFirstLine(ZonedAttrPath(major, minor))
	if modelStr == "" {
		return ZBD_DM_NONE, nil
	}
	return ParseZonedModel(modelStr), nil
}
