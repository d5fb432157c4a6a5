package srec_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scarv/xcsim/mem"
	"github.com/scarv/xcsim/mem/srec"
)

var _ = Describe("Parse", func() {
	var storage *mem.Storage

	BeforeEach(func() {
		storage = mem.NewStorage()
	})

	parse := func(lines ...string) {
		err := srec.Parse(strings.NewReader(strings.Join(lines, "\n")), storage)
		Expect(err).NotTo(HaveOccurred())
	}

	It("should load a 32-bit data record", func() {
		parse("S30900000000DEADBEEFBE")

		Expect(storage.ReadWord(0)).To(Equal(uint32(0xEFBEADDE)))
		Expect(storage.Len()).To(Equal(4))
	})

	It("should decode big-endian addresses", func() {
		parse("S3071234567801027E")

		Expect(storage.Byte(0x12345678)).To(Equal(byte(0x01)))
		Expect(storage.Byte(0x12345679)).To(Equal(byte(0x02)))
	})

	It("should accept lower-case hex digits", func() {
		parse("s3070000abcdcafe00")

		Expect(storage.Byte(0xABCD)).To(Equal(byte(0xCA)))
		Expect(storage.Byte(0xABCE)).To(Equal(byte(0xFE)))
	})

	It("should ignore header, start and blank lines", func() {
		parse(
			"S00F000068656C6C6F202020202000003C",
			"",
			"S30600000010AA3F",
			"",
			"S70500000000FA",
		)

		Expect(storage.Addresses()).To(Equal([]uint32{0x10}))
		Expect(storage.Byte(0x10)).To(Equal(byte(0xAA)))
	})

	It("should skip unknown record types and keep loading", func() {
		parse(
			"S1130000285F245F2212226A000424290008237C2A",
			"S30600000020BB3F",
		)

		Expect(storage.Addresses()).To(Equal([]uint32{0x20}))
	})

	It("should skip truncated records", func() {
		parse(
			"S30900000000DEAD",
			"S3",
			"S30600000004CC00",
		)

		Expect(storage.Addresses()).To(Equal([]uint32{4}))
	})

	It("should let later records overwrite earlier ones", func() {
		parse(
			"S30600000000111F",
			"S30600000000222F",
		)

		Expect(storage.Byte(0)).To(Equal(byte(0x22)))
	})

	It("should tolerate CRLF line endings", func() {
		err := srec.Parse(
			strings.NewReader("S30600000000111F\r\nS30600000001222F\r\n"),
			storage)

		Expect(err).NotTo(HaveOccurred())
		Expect(storage.Read(0, 2)).To(Equal([]byte{0x11, 0x22}))
	})
})

var _ = Describe("Load", func() {
	It("should load a file from disk", func() {
		path := filepath.Join(GinkgoT().TempDir(), "image.srec")
		err := os.WriteFile(path, []byte("S30900000000DEADBEEFBE\n"), 0o644)
		Expect(err).NotTo(HaveOccurred())

		storage, err := srec.Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(storage.ReadWord(0)).To(Equal(uint32(0xEFBEADDE)))
	})

	It("should report a missing file", func() {
		_, err := srec.Load(filepath.Join(GinkgoT().TempDir(), "missing"))

		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, fs.ErrNotExist)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("open memory image"))
	})
})
