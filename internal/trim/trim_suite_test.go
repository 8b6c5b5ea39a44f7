package trim_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTrim(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Trim Suite")
}
