/*
Copyright © 2018 the icgem authors.
This file is part of icgem.

icgem is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

icgem is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with icgem.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command icgem is a command-line interface for reading, checking, mapping
// and converting ICGEM gravity field grid files.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/icgem/icgemutil"
)

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

func main() {
	if len(os.Args) == 1 { // With no command, start the GUI server.
		icgemutil.StartWebServer()
		return
	}
	if err := icgemutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
