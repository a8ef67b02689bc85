package dotdir_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/probitylab/screener/pkg/dotdir"
)

func TestDotdir(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dotdir Suite")
}

var _ = Describe("Manager", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("prefers the override directory", func() {
		override := filepath.Join(tmpDir, "custom")

		target, err := dotdir.NewManager().Target(override)
		Expect(err).NotTo(HaveOccurred())
		Expect(target).To(Equal(override))
	})

	It("creates the target directory when missing", func() {
		override := filepath.Join(tmpDir, "brand", "new")

		target, err := dotdir.NewManager().Target(override)
		Expect(err).NotTo(HaveOccurred())

		info, err := os.Stat(target)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})
})
