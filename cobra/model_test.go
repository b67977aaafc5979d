/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

package cobra_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libcbr "github.com/sabouaram/rpccore/cobra"
	libver "github.com/sabouaram/rpccore/version"
	spfcbr "github.com/spf13/cobra"
)

var _ = Describe("Cobra", func() {
	var (
		app libcbr.Cobra
		ver libver.Version
	)

	BeforeEach(func() {
		app = libcbr.New()
		ver = libver.New(
			"testapp", "github.com/sabouaram/rpccore", "Test Description",
			"Test Author", "MIT", "abc123", "v1.0.0", "2026-01-01", "test-app",
		)
	})

	Describe("Creating a new instance", func() {
		It("should not be nil", func() {
			Expect(app).ToNot(BeNil())
		})
	})

	Describe("Init", func() {
		It("should build a traversable root command", func() {
			app.SetVersion(ver)
			app.Init()

			cmd := app.Cobra()
			Expect(cmd).ToNot(BeNil())
			Expect(cmd.TraverseChildren).To(BeTrue())
		})

		It("should carry the version details in the root command's Version field", func() {
			app.SetVersion(ver)
			app.Init()

			cmd := app.Cobra()
			Expect(cmd.Version).To(ContainSubstring("v1.0.0"))
			Expect(cmd.Version).To(ContainSubstring("abc123"))
			Expect(cmd.Version).To(ContainSubstring("Test Author"))
			Expect(cmd.Version).To(ContainSubstring("MIT"))
		})

		It("should set Long from the version's description", func() {
			app.SetVersion(ver)
			app.Init()

			Expect(app.Cobra().Long).To(Equal("Test Description"))
		})

		It("should fill in defaults for a minimal version", func() {
			minimal := libver.New("testapp", "github.com/sabouaram/rpccore", "", "", "", "", "", "", "")
			app.SetVersion(minimal)
			app.Init()

			Expect(app.Cobra().Version).To(ContainSubstring("unknown"))
		})
	})

	Describe("SetFuncInit", func() {
		It("should not invoke the callback before Execute runs", func() {
			called := false
			app.SetFuncInit(func() { called = true })
			app.SetVersion(ver)
			app.Init()

			Expect(called).To(BeFalse())
		})
	})

	Describe("Flags", func() {
		BeforeEach(func() {
			app.SetVersion(ver)
			app.Init()
		})

		It("should register a persistent verbose counter flag", func() {
			var verbose int
			app.SetFlagVerbose(true, &verbose)

			flag := app.Cobra().PersistentFlags().Lookup("verbose")
			Expect(flag).ToNot(BeNil())
			Expect(flag.Shorthand).To(Equal("v"))
		})

		It("should register a local int flag with the given default", func() {
			var reactors int
			app.AddFlagInt(false, &reactors, "reactors", "r", 4, "reactor pool size")

			flag := app.Cobra().Flags().Lookup("reactors")
			Expect(flag).ToNot(BeNil())
			Expect(reactors).To(Equal(4))
		})

		It("should register a persistent config flag bound to known extensions", func() {
			var cfgPath string
			Expect(app.SetFlagConfig(true, &cfgPath)).To(Succeed())

			flag := app.Cobra().PersistentFlags().Lookup("config")
			Expect(flag).ToNot(BeNil())
			Expect(flag.Shorthand).To(Equal("c"))
		})
	})

	Describe("AddCommand", func() {
		It("should attach subcommands to the root command", func() {
			app.SetVersion(ver)
			app.Init()

			sub := &spfcbr.Command{Use: "probe", Run: func(*spfcbr.Command, []string) {}}
			app.AddCommand(sub)

			found := false
			for _, c := range app.Cobra().Commands() {
				if c.Use == "probe" {
					found = true
				}
			}
			Expect(found).To(BeTrue())
		})
	})

	Describe("AddCommandCompletion", func() {
		It("should register the completion subcommand", func() {
			app.SetVersion(ver)
			app.Init()
			app.AddCommandCompletion()

			found := false
			for _, c := range app.Cobra().Commands() {
				if c.Name() == "completion" {
					found = true
				}
			}
			Expect(found).To(BeTrue())
		})
	})
})
