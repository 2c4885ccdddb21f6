package scenediff_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSceneDiff(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SceneDiff Suite")
}
