package cli

var RunForTest = run
