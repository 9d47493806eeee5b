// Package process runs host callbacks as local processes, so a flow can be wired to
// shell scripts or any other executable without writing Go.
//
// A hooks file names one command per callback:
//
//	transition:
//	  command: ./hooks/moved.sh
//	collect:
//	  command: python3
//	  args: [hooks/save.py]
//	  env:
//	    DB_PATH: data.db
package process
