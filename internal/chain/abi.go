package chain

const erc721ABI = `[
  {"type":"function","name":"balanceOf","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"ownerOf","stateMutability":"view",
   "inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"tokenURI","stateMutability":"view",
   "inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]}
]`

const registrationWorkflowsABI = `[
  {"type":"function","name":"mintAndRegisterIp","stateMutability":"nonpayable",
   "inputs":[
     {"name":"spgNftContract","type":"address"},
     {"name":"recipient","type":"address"},
     {"name":"ipMetadata","type":"tuple","components":[
       {"name":"ipMetadataURI","type":"string"},
       {"name":"ipMetadataHash","type":"bytes32"},
       {"name":"nftMetadataURI","type":"string"},
       {"name":"nftMetadataHash","type":"bytes32"}]},
     {"name":"allowDuplicates","type":"bool"}],
   "outputs":[{"name":"ipId","type":"address"},{"name":"tokenId","type":"uint256"}]}
]`

const ipAssetRegistryABI = `[
  {"type":"function","name":"ipId","stateMutability":"view",
   "inputs":[{"name":"chainId","type":"uint256"},{"name":"tokenContract","type":"address"},{"name":"tokenId","type":"uint256"}],
   "outputs":[{"name":"","type":"address"}]},
  {"type":"event","name":"IPRegistered","anonymous":false,
   "inputs":[
     {"name":"ipId","type":"address","indexed":false},
     {"name":"chainId","type":"uint256","indexed":true},
     {"name":"tokenContract","type":"address","indexed":true},
     {"name":"tokenId","type":"uint256","indexed":true},
     {"name":"name","type":"string","indexed":false},
     {"name":"uri","type":"string","indexed":false},
     {"name":"registrationDate","type":"uint256","indexed":false}]}
]`

const licensingModuleABI = `[
  {"type":"function","name":"attachLicenseTerms","stateMutability":"nonpayable",
   "inputs":[{"name":"ipId","type":"address"},{"name":"licenseTemplate","type":"address"},{"name":"licenseTermsId","type":"uint256"}],
   "outputs":[]}
]`
