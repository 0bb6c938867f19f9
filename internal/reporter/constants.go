package reporter

const noChangeMarker = "(0)"
