/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package version_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/rpccore/version"
)

var _ = Describe("Version", func() {
	Describe("New with every field supplied", func() {
		var v version.Version

		BeforeEach(func() {
			v = version.New(
				"rpcctl", "github.com/sabouaram/rpccore", "RPC client and load-test harness",
				"rpccore", "MIT", "abc123", "v1.0.0", "2026-01-01", "rpcctl-app",
			)
		})

		It("should return the package name", func() {
			Expect(v.GetPackage()).To(Equal("rpcctl"))
		})

		It("should return the root package path", func() {
			Expect(v.GetRootPackagePath()).To(Equal("github.com/sabouaram/rpccore"))
		})

		It("should return the description", func() {
			Expect(v.GetDescription()).To(Equal("RPC client and load-test harness"))
		})

		It("should return the author", func() {
			Expect(v.GetAuthor()).To(Equal("rpccore"))
		})

		It("should return the license name", func() {
			Expect(v.GetLicenseName()).To(Equal("MIT"))
		})

		It("should return the build, release, date and app id unchanged", func() {
			Expect(v.GetBuild()).To(Equal("abc123"))
			Expect(v.GetRelease()).To(Equal("v1.0.0"))
			Expect(v.GetDate()).To(Equal("2026-01-01"))
			Expect(v.GetAppId()).To(Equal("rpcctl-app"))
		})

		It("should build a header mentioning package, release, build, date and author", func() {
			h := v.GetHeader()
			Expect(h).To(ContainSubstring("rpcctl"))
			Expect(h).To(ContainSubstring("v1.0.0"))
			Expect(h).To(ContainSubstring("abc123"))
			Expect(h).To(ContainSubstring("2026-01-01"))
			Expect(h).To(ContainSubstring("rpccore"))
		})
	})

	Describe("New with build, release, date and app id omitted", func() {
		It("should default every omitted field to unknown", func() {
			v := version.New("rpcctl", "github.com/sabouaram/rpccore", "desc", "author", "MIT", "", "", "", "")

			Expect(v.GetBuild()).To(Equal("unknown"))
			Expect(v.GetRelease()).To(Equal("unknown"))
			Expect(v.GetDate()).To(Equal("unknown"))
			Expect(v.GetAppId()).To(Equal("unknown"))
		})

		It("should leave package, description, author and license untouched", func() {
			v := version.New("rpcctl", "github.com/sabouaram/rpccore", "desc", "author", "MIT", "", "", "", "")

			Expect(v.GetPackage()).To(Equal("rpcctl"))
			Expect(v.GetDescription()).To(Equal("desc"))
			Expect(v.GetAuthor()).To(Equal("author"))
			Expect(v.GetLicenseName()).To(Equal("MIT"))
		})
	})
})
