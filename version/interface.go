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

// Package version holds the build-time identity of a binary - release tag,
// commit hash, build date and the handful of other fields the cobra
// wrapper prints in its banner and --version output.
package version

import "fmt"

// Version describes a single built binary.
type Version interface {
	GetPackage() string
	GetRootPackagePath() string
	GetDescription() string
	GetAuthor() string
	GetLicenseName() string
	GetBuild() string
	GetRelease() string
	GetDate() string
	GetAppId() string
	GetHeader() string
}

type vers struct {
	pkg     string
	root    string
	desc    string
	author  string
	license string
	build   string
	release string
	date    string
	appID   string
}

// New returns a Version populated with build-time values. Callers normally
// fill build/release/date from linker -X flags; empty values are reported
// as "unknown" rather than left blank.
func New(pkg, rootPackagePath, description, author, license, build, release, date, appID string) Version {
	v := &vers{
		pkg:     pkg,
		root:    rootPackagePath,
		desc:    description,
		author:  author,
		license: license,
		build:   build,
		release: release,
		date:    date,
		appID:   appID,
	}
	for _, s := range []*string{&v.build, &v.release, &v.date, &v.appID} {
		if *s == "" {
			*s = "unknown"
		}
	}
	return v
}

func (v *vers) GetPackage() string          { return v.pkg }
func (v *vers) GetRootPackagePath() string  { return v.root }
func (v *vers) GetDescription() string      { return v.desc }
func (v *vers) GetAuthor() string           { return v.author }
func (v *vers) GetLicenseName() string      { return v.license }
func (v *vers) GetBuild() string            { return v.build }
func (v *vers) GetRelease() string          { return v.release }
func (v *vers) GetDate() string             { return v.date }
func (v *vers) GetAppId() string            { return v.appID }

func (v *vers) GetHeader() string {
	return fmt.Sprintf("%s %s (build %s, %s) - %s", v.pkg, v.release, v.build, v.date, v.author)
}
