// SPDX-License-Identifier: MIT
package strutil_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/gg/internal/strutil"
)

var _ = Describe("SplitCSV", func() {
	It("drops blanks and whitespace", func() {
		Expect(strutil.SplitCSV(" a, ,b,c ")).To(Equal([]string{"a", "b", "c"}))
	})

	It("returns nil for empty input", func() {
		Expect(strutil.SplitCSV("  ")).To(BeNil())
	})

	It("flattens repeated flag values", func() {
		Expect(strutil.SplitAllCSV([]string{"vendor/**,build", "dist"})).To(Equal([]string{"vendor/**", "build", "dist"}))
	})
})
